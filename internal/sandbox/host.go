package sandbox

import (
	"fmt"
	"html"
	"strings"
)

// HostDocument is a page embedding the preview in its sandboxed iframe. The host
// treats a missing ready message within the ready timeout as a failure, and forwards
// the outcome to its own parent when embedded.
func HostDocument(p Preview, title string) string {
	var b strings.Builder
	b.WriteString("<!doctype html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString("Preview: "+title))
	b.WriteString("<style>html,body{margin:0;height:100%}iframe{border:0;width:100%;height:100%}" +
		"#status{padding:8px 12px;font:13px sans-serif;color:#555}#status.failed{color:#b71c1c;background:#ffebee}</style>\n")
	b.WriteString("</head>\n<body>\n<div id=\"status\" role=\"status\">Loading preview</div>\n")
	fmt.Fprintf(&b, "<iframe id=\"preview\" src=\"%s\" sandbox=\"%s\" title=\"%s\" referrerpolicy=\"no-referrer\"></iframe>\n",
		html.EscapeString(p.URL), html.EscapeString(p.Sandbox), html.EscapeString(title))
	fmt.Fprintf(&b, `<script>
(function () {
  var channel = %s;
  var timeoutMs = %d;
  var ready = false;
  var status = document.getElementById("status");
  var frame = document.getElementById("preview");
  function forward(type, message) {
    if (window.parent === window) return;
    window.parent.postMessage({ type: type, channel: channel, message: message || "" }, "*");
  }
  function fail(message) {
    status.hidden = false;
    status.className = "failed";
    status.textContent = "Preview failed: " + message;
    forward(%s, message);
  }
  var timer = setTimeout(function () {
    if (!ready) fail("preview did not become ready within " + timeoutMs + "ms");
  }, timeoutMs);
  window.addEventListener("message", function (e) {
    if (e.source !== frame.contentWindow) return;
    var d = e.data;
    if (!d || d.channel !== channel) return;
    if (d.type === %s && !ready) {
      ready = true;
      clearTimeout(timer);
      status.hidden = true;
      forward(d.type);
    } else if (d.type === %s) {
      clearTimeout(timer);
      fail(String(d.message || "unknown error"));
    }
  });
})();
</script>
</body>
</html>
`, jsString(p.Channel), p.ReadyTimeoutMS, jsString(MessageError), jsString(MessageReady), jsString(MessageError))
	return b.String()
}
