package browser

// Scripts evaluated in the tab. Element scripts run with this bound to the
// element. Selectors come from configuration, so every querySelector that
// takes one tolerates a syntax error.

// jsContainers returns the elements matched by any selector that hold no
// other matched element, in document order. Generic selectors also match
// the layout cells wrapping the log table and the pager.
const jsContainers = `(selectors) => {
	const seen = new Set();
	for (const s of selectors) {
		try { document.querySelectorAll(s).forEach(e => seen.add(e)); } catch (e) {}
	}
	const outer = new Set();
	seen.forEach(e => {
		for (let p = e.parentElement; p; p = p.parentElement) {
			if (seen.has(p)) outer.add(p);
		}
	});
	return Array.from(seen).filter(e => !outer.has(e)).sort((a, b) =>
		a === b ? 0 : (a.compareDocumentPosition(b) & Node.DOCUMENT_POSITION_FOLLOWING) ? -1 : 1);
}`

// jsTextNodes lists the text nodes of root in document order, leaving out
// text that is never page content.
const jsTextNodes = `const textNodes = (root) => {
	const skip = new Set(['SCRIPT', 'STYLE', 'NOSCRIPT', 'TEXTAREA', 'TEMPLATE']);
	const walker = document.createTreeWalker(root, NodeFilter.SHOW_ELEMENT | NodeFilter.SHOW_TEXT, {
		acceptNode: n => n.nodeType === Node.ELEMENT_NODE && skip.has(n.tagName.toUpperCase())
			? NodeFilter.FILTER_REJECT : NodeFilter.FILTER_ACCEPT,
	});
	const out = [];
	for (let n = walker.nextNode(); n; n = walker.nextNode()) {
		if (n.nodeType === Node.TEXT_NODE) out.push(n);
	}
	return out;
};`

// jsTexts returns the container's text, or null when it already holds or
// sits inside a marker.
const jsTexts = `(markerSel) => {
	` + jsTextNodes + `
	if (this.querySelector(markerSel) || this.closest(markerSel)) return null;
	return textNodes(this).map(t => t.data);
}`

// jsWrap replaces the planned text nodes with their segments, wrapping
// matches in markers. No element is touched. It returns null without
// writing if the container's text changed since jsTexts, else the marker
// positions as JSON.
const jsWrap = `(before, edits, tag, cls, style) => {
	` + jsTextNodes + `
	if (!this.isConnected) return null;
	const texts = textNodes(this);
	if (texts.length !== before.length || texts.some((t, i) => t.data !== before[i])) return null;
	const marks = [];
	for (const e of edits) {
		const t = texts[e.index];
		const frag = document.createDocumentFragment();
		for (const s of e.segments) {
			if (!s.match) {
				frag.appendChild(document.createTextNode(s.text));
				continue;
			}
			const m = document.createElement(tag);
			m.className = cls;
			if (style) m.setAttribute('style', style);
			m.textContent = s.text;
			frag.appendChild(m);
			marks.push(m);
		}
		t.parentNode.replaceChild(frag, t);
	}
	return JSON.stringify(marks.map(m => {
		const r = m.getBoundingClientRect();
		return {top: r.top, left: r.left};
	}));
}`

const jsClear = `(markerSel) => {
	const markers = document.querySelectorAll(markerSel);
	const parents = new Set();
	markers.forEach(m => {
		const p = m.parentNode;
		if (!p) return;
		p.replaceChild(document.createTextNode(m.textContent), m);
		parents.add(p);
	});
	parents.forEach(p => p.normalize());
	return markers.length;
}`

const jsAttribute = `(sel, name) => {
	let el = null;
	try { el = document.querySelector(sel); } catch (e) { return null; }
	if (!el || !el.hasAttribute(name)) return null;
	return el.getAttribute(name);
}`

// jsOpen mimics a user clicking into the range field.
const jsOpen = `(sel) => {
	let el = null;
	try { el = document.querySelector(sel); } catch (e) { return false; }
	if (!el) return false;
	el.focus();
	for (const type of ['mousedown', 'mouseup', 'click']) {
		el.dispatchEvent(new MouseEvent(type, {bubbles: true, cancelable: true, view: window}));
	}
	return true;
}`

const jsVisible = `(sel) => {
	let el = null;
	try { el = document.querySelector(sel); } catch (e) { return false; }
	if (!el) return false;
	const s = getComputedStyle(el);
	if (s.display === 'none' || s.visibility === 'hidden' || s.opacity === '0') return false;
	const r = el.getBoundingClientRect();
	return r.width > 0 && r.height > 0;
}`

const jsOptions = `(panelSel, optionSel) => {
	let panel = null;
	try { panel = document.querySelector(panelSel); } catch (e) { return []; }
	if (!panel) return [];
	return Array.from(panel.querySelectorAll(optionSel)).map(o => o.textContent);
}`

// jsChoose re-checks the option label before sending the pointer
// sequence; the panel may have been rebuilt since it was listed.
const jsChoose = `(panelSel, optionSel, index, label) => {
	let panel = null;
	try { panel = document.querySelector(panelSel); } catch (e) { return 'missing'; }
	if (!panel) return 'missing';
	const o = panel.querySelectorAll(optionSel)[index];
	if (!o) return 'missing';
	if (o.textContent !== label) return 'stale';
	for (const type of ['mouseover', 'mousedown', 'mouseup', 'click']) {
		o.dispatchEvent(new MouseEvent(type, {bubbles: true, cancelable: true, view: window}));
	}
	return 'ok';
}`

const jsBodyText = `() => document.body ? document.body.innerText : ''`

const jsScroll = `(top, left) => window.scrollTo({
	top: top + window.scrollY,
	left: left + window.scrollX,
	behavior: 'smooth',
})`
