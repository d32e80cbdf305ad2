package server

import (
	"bytes"
	"io"
	"net/http"
	"path"
	"strings"
	"time"
)

// ReloadScript reconnects to /ws and reloads the page after each build.
const ReloadScript = `<script>
(function () {
  var retry = 500;
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function () { retry = 500; };
    ws.onmessage = function (event) {
      var msg = JSON.parse(event.data);
      if (msg.type === "reload") {
        location.reload();
      } else if (msg.type === "build_error") {
        console.error("iconforge build failed:\n" + msg.content);
      }
    };
    ws.onclose = function () {
      setTimeout(connect, retry);
      retry = Math.min(retry * 2, 8000);
    };
  }
  connect();
})();
</script>
`

// InjectReloadScript inserts ReloadScript before the last </body>, or
// appends it when the page has none.
func InjectReloadScript(page []byte) []byte {
	idx := bytes.LastIndex(bytes.ToLower(page), []byte("</body>"))
	if idx < 0 {
		return append(append([]byte{}, page...), ReloadScript...)
	}

	out := make([]byte, 0, len(page)+len(ReloadScript))
	out = append(out, page[:idx]...)
	out = append(out, ReloadScript...)

	return append(out, page[idx:]...)
}

// staticHandler serves the dist folder with caching disabled, since every
// rebuild replaces the files in place.
type staticHandler struct {
	root  http.FileSystem
	files http.Handler
}

func newStaticHandler(dist string) *staticHandler {
	root := http.Dir(dist)

	return &staticHandler{root: root, files: http.FileServer(root)}
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")

	name := path.Clean("/" + r.URL.Path)
	if strings.HasSuffix(r.URL.Path, "/") {
		name = path.Join(name, "index.html")
	}
	if !strings.HasSuffix(name, ".html") {
		h.files.ServeHTTP(w, r)
		return
	}

	f, err := h.root.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	page, err := io.ReadAll(f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(InjectReloadScript(page)))
}
