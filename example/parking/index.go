package main

import (
	"html/template"
	"log"
	"net/http"
)

// indexPage shows both streams side by side, scales clicks on the front
// view back to frame coordinates and posts the maneuver commands
var indexPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Auto Parking</title>
<style>
body { background: #111; color: #eee; font-family: sans-serif; margin: 20px; }
.views { display: flex; gap: 16px; align-items: flex-start; }
#front { width: {{.FrameW}}px; height: {{.FrameH}}px; cursor: crosshair; border: 1px solid #444; }
#bev { width: {{.BevW}}px; height: {{.BevH}}px; border: 1px solid #444; }
button { font-size: 16px; padding: 8px 20px; margin: 12px 8px 0 0; }
#msg { margin-top: 12px; color: #8f8; }
</style>
</head>
<body>
<h2>Auto Parking</h2>
<div class="views">
  <img id="front" src="/front">
  <img id="bev" src="/bev">
</div>
<div>
  <button onclick="post('/start')">Start</button>
  <button onclick="post('/reset')">Reset</button>
  <button onclick="post('/confirm')">Confirm</button>
</div>
<div id="msg"></div>
<script>
const frameW = {{.FrameW}}, frameH = {{.FrameH}};
const msg = document.getElementById('msg');

function post(url, body) {
  const opts = { method: 'POST' };
  if (body !== undefined) {
    opts.headers = { 'Content-Type': 'application/json' };
    opts.body = JSON.stringify(body);
  }
  return fetch(url, opts)
    .then(r => r.json())
    .then(j => { msg.textContent = url + ': ' + JSON.stringify(j); })
    .catch(e => { msg.textContent = url + ': ' + e; });
}

document.getElementById('front').addEventListener('click', ev => {
  const rect = ev.target.getBoundingClientRect();
  const x = Math.round((ev.clientX - rect.left) * frameW / rect.width);
  const y = Math.round((ev.clientY - rect.top) * frameH / rect.height);
  post('/click', { x: x, y: y });
});
</script>
</body>
</html>
`))

// Index serves the demo page
func (d *Demo) Index(w http.ResponseWriter, r *http.Request) {

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := indexPage.Execute(w, struct {
		FrameW, FrameH, BevW, BevH int
	}{d.frameW, d.frameH, d.bevW, d.bevH})

	if err != nil {
		log.Printf("Error rendering index: %v", err)
	}
}
