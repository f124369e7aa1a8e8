package sandbox

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"

	"uigen/internal/domain"
)

const (
	// SandboxAttributes is the iframe sandbox the host page must use. Without
	// allow-same-origin the document runs in an opaque origin and cannot reach the
	// host page, its cookies or the API.
	SandboxAttributes = "allow-scripts"
	// HeaderPolicy is the Content-Security-Policy header served with preview documents.
	HeaderPolicy = "sandbox " + SandboxAttributes
	// documentPolicy is embedded in every document. It blocks network access other
	// than the pinned script and font hosts.
	documentPolicy = "default-src 'none'; script-src 'unsafe-inline' https://unpkg.com; " +
		"style-src 'unsafe-inline' https://fonts.googleapis.com; font-src https://fonts.gstatic.com; " +
		"img-src data: https:; connect-src 'none'; form-action 'none'; base-uri 'none'"
)

// Message types posted to the parent window.
const (
	MessageReady = "preview:ready"
	MessageError = "preview:error"
)

// jsString encodes s as a JS string literal that is safe inside a script element.
func jsString(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

// bridgeScript reports readiness and every uncaught error to the parent window and
// shows errors inline.
func bridgeScript(channel string) string {
	return `(function () {
  var channel = ` + jsString(channel) + `;
  var state = { ready: false, failed: false };
  function post(type, extra) {
    var msg = { type: type, channel: channel };
    for (var k in extra || {}) msg[k] = extra[k];
    try { window.parent.postMessage(msg, "*"); } catch (_) {}
  }
  function show(message) {
    var el = document.getElementById("__preview_error");
    if (!el) {
      el = document.createElement("pre");
      el.id = "__preview_error";
      el.setAttribute("role", "alert");
      el.style.cssText = "margin:0;padding:12px;color:#b71c1c;background:#ffebee;white-space:pre-wrap;font:12px monospace";
      (document.body || document.documentElement).appendChild(el);
    }
    el.textContent = message;
  }
  window.__preview = {
    ready: function () {
      if (state.ready || state.failed) return;
      state.ready = true;
      post("` + MessageReady + `", {});
    },
    fail: function (err) {
      var message = err && err.message ? String(err.message) : String(err);
      state.failed = true;
      try { show(message); } catch (_) {}
      post("` + MessageError + `", { message: message, stack: err && err.stack ? String(err.stack) : "" });
    },
    failed: function () { return state.failed; }
  };
  window.onerror = function (message, source, line, column, error) {
    window.__preview.fail(error || message);
    return true;
  };
  window.addEventListener("unhandledrejection", function (e) {
    window.__preview.fail(e.reason);
    e.preventDefault();
  });
})();`
}

// runtimePrelude defines the module loader used by compiled components and the
// fallbacks for modules without a browser bundle.
const runtimePrelude = `var __icons = {};
function __ns(global) {
  var ns = window[global];
  if (!ns) throw new Error(global + " is not available in the preview");
  return ns;
}
function __sub(global, name) {
  var ns = __ns(global);
  if (/^[a-z]/.test(name)) return ns[name] && typeof ns[name] === "object" ? ns[name] : ns;
  if (ns[name] === undefined) throw new Error(global + " has no export " + name);
  return { __esModule: true, default: ns[name] };
}
function __placeholder(spec) {
  var Missing = function () { return null; };
  Missing.displayName = "Missing(" + spec + ")";
  return { __esModule: true, default: Missing };
}
function __icon(ligature) {
  if (!__icons[ligature]) {
    __icons[ligature] = function (props) {
      return React.createElement(MaterialUI.Icon, Object.assign({ baseClassName: "material-icons" }, props), ligature);
    };
  }
  return __icons[ligature];
}
function __iconModule(ligature) {
  return { __esModule: true, default: __icon(ligature) };
}
function __iconSet(names) {
  var out = {};
  for (var name in names) out[name] = __icon(names[name]);
  return out;
}
var __dataGrid = (function () {
  var h = React.createElement, M = MaterialUI;
  function params(row, col) {
    return { id: row.id, row: row, field: col.field, value: row[col.field], colDef: col };
  }
  function cell(row, col) {
    var p = params(row, col);
    if (col.type === "actions" && typeof col.getActions === "function") {
      return h(M.Stack, { direction: "row", spacing: 0.5 }, col.getActions(p));
    }
    if (typeof col.renderCell === "function") return col.renderCell(p);
    if (typeof col.valueGetter === "function") return String(col.valueGetter(p.value, row) ?? "");
    if (typeof col.valueFormatter === "function") return String(col.valueFormatter(p.value) ?? "");
    return p.value == null ? "" : String(p.value);
  }
  function DataGrid(props) {
    var rows = props.rows || [], columns = props.columns || [];
    return h(M.TableContainer, { component: M.Paper, "aria-label": props["aria-label"] },
      h(M.Table, { size: "small" },
        h(M.TableHead, null, h(M.TableRow, null, columns.map(function (c) {
          return h(M.TableCell, { key: c.field }, c.headerName || c.field);
        }))),
        h(M.TableBody, null, rows.map(function (r, i) {
          return h(M.TableRow, { key: r.id != null ? r.id : i }, columns.map(function (c) {
            return h(M.TableCell, { key: c.field }, cell(r, c));
          }));
        }))));
  }
  function GridActionsCellItem(props) {
    return h(M.IconButton, { size: "small", "aria-label": props.label, onClick: props.onClick, disabled: props.disabled }, props.icon);
  }
  function GridToolbarContainer(props) { return h(M.Box, { sx: { p: 1 } }, props.children); }
  function GridToolbar() { return null; }
  return {
    DataGrid: DataGrid,
    GridActionsCellItem: GridActionsCellItem,
    GridToolbar: GridToolbar,
    GridToolbarContainer: GridToolbarContainer
  };
})();
class __Boundary extends React.Component {
  constructor(props) { super(props); this.state = { error: null }; }
  static getDerivedStateFromError(error) { return { error: error }; }
  componentDidCatch(error) { window.__preview.fail(error); }
  componentDidMount() { if (!this.state.error) window.__preview.ready(); }
  render() { return this.state.error ? null : this.props.children; }
}`

// componentDocument is the input of a compiled preview document.
type componentDocument struct {
	Title    string
	Channel  string
	Theme    domain.Theme
	Category domain.Category
	Modules  string
	Compiled string
	Props    string
}

// scriptSafe keeps compiled code from terminating its script element early.
func scriptSafe(js string) string {
	js = closingScriptRe.ReplaceAllString(js, `<\/script`)
	return strings.ReplaceAll(js, "<!--", `<\!--`)
}

var closingScriptRe = regexp.MustCompile(`(?i)</script`)

func renderComponentDocument(d componentDocument) string {
	mode := "light"
	background := "#ffffff"
	if d.Theme == domain.ThemeDark {
		mode, background = "dark", "#121212"
	}

	var b strings.Builder
	b.WriteString("<!doctype html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<meta http-equiv=\"Content-Security-Policy\" content=\"%s\">\n", html.EscapeString(documentPolicy))
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(d.Title))
	b.WriteString("<link rel=\"stylesheet\" href=\"https://fonts.googleapis.com/icon?family=Material+Icons\">\n")
	fmt.Fprintf(&b, "<style>body{margin:0;padding:16px;background:%s;font-family:Roboto,Helvetica,Arial,sans-serif}</style>\n", background)
	fmt.Fprintf(&b, "<script>%s</script>\n", bridgeScript(d.Channel))
	for _, src := range shimScripts() {
		fmt.Fprintf(&b, "<script src=\"%s\" crossorigin></script>\n", html.EscapeString(src))
	}
	b.WriteString("</head>\n<body>\n<div id=\"root\"></div>\n")

	b.WriteString("<script>\ntry {\n")
	b.WriteString(runtimePrelude)
	b.WriteString("\n")
	if seed, ok := seedBindings[d.Category]; ok {
		b.WriteString(seed)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "var __modules = %s;\n", scriptSafe(d.Modules))
	b.WriteString(`function __require(spec) {
  var load = __modules[spec];
  if (!load) throw new Error("module not available in preview: " + spec);
  return load();
}
var __module = { exports: {} };
(function (module, exports, require, React) {
`)
	b.WriteString(scriptSafe(d.Compiled))
	b.WriteString("\n})(__module, __module.exports, __require, React);\n")
	fmt.Fprintf(&b, "var __props = %s;\n", scriptSafe(d.Props))
	fmt.Fprintf(&b, `var __exported = __module.exports || {};
var __Component = __exported.default || Object.keys(__exported).map(function (k) { return __exported[k]; }).find(function (v) { return typeof v === "function"; });
if (!__Component) throw new Error("component has no default export");
var __theme = MaterialUI.createTheme({ palette: { mode: %s } });
ReactDOM.createRoot(document.getElementById("root")).render(
  React.createElement(MaterialUI.ThemeProvider, { theme: __theme },
    React.createElement(MaterialUI.CssBaseline, null),
    React.createElement(__Boundary, null, React.createElement(__Component, __props))));
`, jsString(mode))
	b.WriteString("} catch (err) {\n  window.__preview.fail(err);\n}\n</script>\n</body>\n</html>\n")
	return b.String()
}

// renderErrorDocument shows err inline and reports it, for code that never got to run.
func renderErrorDocument(title, channel string, err error) string {
	var b strings.Builder
	b.WriteString("<!doctype html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<meta http-equiv=\"Content-Security-Policy\" content=\"%s\">\n", html.EscapeString(documentPolicy))
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	fmt.Fprintf(&b, "<script>%s</script>\n", bridgeScript(channel))
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<script>window.__preview.fail(new Error(%s));</script>\n", jsString(err.Error()))
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

var (
	headOpenRe = regexp.MustCompile(`(?i)<head(\s[^>]*)?>`)
	htmlOpenRe = regexp.MustCompile(`(?i)<html(\s[^>]*)?>`)
)

// injectBridge adds the policy and bridge to a provider-supplied document without
// touching the rest of it. Readiness is reported once the document has loaded.
func injectBridge(doc, channel string) string {
	inject := fmt.Sprintf("\n<meta http-equiv=\"Content-Security-Policy\" content=\"%s\">\n<script>%s\nwindow.addEventListener(\"load\", function () { window.__preview.ready(); });</script>\n",
		html.EscapeString(documentPolicy), bridgeScript(channel))
	if loc := headOpenRe.FindStringIndex(doc); loc != nil {
		return doc[:loc[1]] + inject + doc[loc[1]:]
	}
	if loc := htmlOpenRe.FindStringIndex(doc); loc != nil {
		return doc[:loc[1]] + "<head>" + inject + "</head>" + doc[loc[1]:]
	}
	return "<head>" + inject + "</head>\n" + doc
}

// looksLikeDocument reports whether a provider preview is usable HTML.
func looksLikeDocument(doc string) bool {
	lower := strings.ToLower(doc)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body")
}

var (
	channelRe = regexp.MustCompile(`var channel = "([0-9a-fA-F-]{36})";`)
	titleRe   = regexp.MustCompile(`(?is)<title>([^<]*)</title>`)
)

func channelOf(doc string) string {
	if m := channelRe.FindStringSubmatch(doc); m != nil {
		return m[1]
	}
	return ""
}

func titleOf(doc string) string {
	if m := titleRe.FindStringSubmatch(doc); m != nil {
		if t := strings.TrimSpace(html.UnescapeString(m[1])); t != "" {
			return t
		}
	}
	return "Preview"
}
