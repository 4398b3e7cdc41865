package api

import (
	"net/http"
)

const viewerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>chaintour</title>
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: monospace;
            background: #1a1a2e;
            color: #eee;
            height: 100vh;
            display: flex;
            flex-direction: column;
        }
        header {
            background: #16213e;
            padding: 12px 20px;
            border-bottom: 1px solid #0f3460;
            display: flex;
            justify-content: space-between;
            align-items: center;
        }
        header h1 { font-size: 16px; font-weight: normal; }
        #status {
            padding: 4px 10px;
            border-radius: 4px;
            font-size: 12px;
        }
        #status.connected { background: #1b4332; color: #95d5b2; }
        #status.disconnected { background: #7f1d1d; color: #fca5a5; }
        #status.connecting { background: #78350f; color: #fcd34d; }
        .controls {
            background: #16213e;
            padding: 10px 20px;
            border-bottom: 1px solid #0f3460;
            display: flex;
            gap: 10px;
            align-items: center;
            flex-wrap: wrap;
        }
        .controls select, .controls button {
            background: #1a1a2e;
            border: 1px solid #0f3460;
            border-radius: 4px;
            padding: 6px 10px;
            color: #eee;
            font-family: monospace;
            font-size: 12px;
        }
        .controls button { background: #2563eb; border: none; cursor: pointer; }
        .controls button:hover { background: #1d4ed8; }
        .controls button.stop { background: #dc2626; }
        .controls label { font-size: 12px; color: #9ca3af; }
        #result { font-size: 12px; color: #fca5a5; }
        main { flex: 1; display: flex; overflow: hidden; }
        #diagram { flex: 1; }
        #diagram .node rect { fill: #16213e; stroke: #0f3460; stroke-width: 2; rx: 6; }
        #diagram .node text { fill: #9ca3af; font-size: 12px; text-anchor: middle; }
        #diagram .node.active rect { stroke: #60a5fa; fill: #1e3a8a; }
        #diagram .node.active text { fill: #fff; }
        #diagram .node.highlight rect { stroke: #a78bfa; }
        #diagram .node.preview rect { stroke-dasharray: 4 2; stroke: #fcd34d; }
        #diagram .edge { stroke: #334155; stroke-width: 1.5; fill: none; }
        #diagram .edge.active { stroke: #60a5fa; stroke-width: 3; }
        #diagram .edge.preview { stroke: #fcd34d; stroke-width: 2; }
        aside {
            width: 320px;
            background: #16213e;
            border-left: 1px solid #0f3460;
            padding: 12px;
            overflow-y: auto;
            font-size: 12px;
        }
        #description { color: #eee; margin-bottom: 12px; min-height: 3em; }
        .event { padding: 4px 0; border-bottom: 1px solid #0f3460; }
        .event .name { color: #60a5fa; }
        .event .ts { color: #6b7280; }
        footer {
            background: #16213e;
            padding: 8px 20px;
            border-top: 1px solid #0f3460;
            font-size: 11px;
            color: #6b7280;
        }
    </style>
</head>
<body>
    <header>
        <h1 id="title">chaintour</h1>
        <span id="status" class="disconnected">Disconnected</span>
    </header>
    <div class="controls">
        <select id="scenario"></select>
        <button onclick="post('/playback/play', { scenario_id: scenarioEl.value })">Play</button>
        <button onclick="post('/playback/pause')">Pause</button>
        <button onclick="post('/playback/resume')">Resume</button>
        <button class="stop" onclick="post('/playback/reset')">Reset</button>
        <label>Speed <span id="speedValue">1x</span></label>
        <input type="range" id="speed" min="0.25" max="4" step="0.25" value="1">
        <span id="result"></span>
    </div>
    <main>
        <svg id="diagram"></svg>
        <aside>
            <div id="step"></div>
            <div id="description"></div>
            <div id="events"></div>
        </aside>
    </main>
    <footer>
        <span id="count">0</span> events | WebSocket: /ws
    </footer>

    <script>
        const NS = 'http://www.w3.org/2000/svg';
        const svg = document.getElementById('diagram');
        const scenarioEl = document.getElementById('scenario');
        const speedEl = document.getElementById('speed');
        const statusEl = document.getElementById('status');
        const resultEl = document.getElementById('result');
        const eventsDiv = document.getElementById('events');
        let nodeEls = {};
        let edgeEls = {};
        let eventCount = 0;
        let ws = null;
        let reconnectTimer = null;

        function post(path, body) {
            return fetch(path, {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify(body || {})
            })
            .then(function(res) { return res.json(); })
            .then(function(data) {
                resultEl.textContent = data.ok ? '' : (data.error || 'failed');
                if (data.state) render(data.state);
            })
            .catch(function() { resultEl.textContent = 'Network error'; });
        }

        function layout(graph) {
            const layers = [];
            const byLayer = {};
            graph.nodes.forEach(function(n) {
                const l = n.layer || '';
                if (!byLayer[l]) { byLayer[l] = []; layers.push(l); }
                byLayer[l].push(n);
            });
            const pos = {};
            layers.forEach(function(l, col) {
                byLayer[l].forEach(function(n, row) {
                    pos[n.id] = { x: 100 + col * 180, y: 60 + row * 90 };
                });
            });
            svg.setAttribute('viewBox', '0 0 ' + (layers.length * 180 + 40) + ' 600');
            return pos;
        }

        function drawDiagram(d) {
            document.getElementById('title').textContent = d.title;
            const pos = layout(d.graph);
            d.graph.edges.forEach(function(e) {
                const line = document.createElementNS(NS, 'line');
                line.setAttribute('class', 'edge');
                line.setAttribute('x1', pos[e.from].x);
                line.setAttribute('y1', pos[e.from].y);
                line.setAttribute('x2', pos[e.to].x);
                line.setAttribute('y2', pos[e.to].y);
                const title = document.createElementNS(NS, 'title');
                title.textContent = e.label || e.id;
                line.appendChild(title);
                svg.appendChild(line);
                edgeEls[e.id] = line;
            });
            d.graph.nodes.forEach(function(n) {
                const g = document.createElementNS(NS, 'g');
                g.setAttribute('class', 'node');
                g.setAttribute('transform', 'translate(' + pos[n.id].x + ',' + pos[n.id].y + ')');
                const rect = document.createElementNS(NS, 'rect');
                rect.setAttribute('x', -70);
                rect.setAttribute('y', -18);
                rect.setAttribute('width', 140);
                rect.setAttribute('height', 36);
                const text = document.createElementNS(NS, 'text');
                text.setAttribute('y', 4);
                text.textContent = n.label || n.id;
                g.appendChild(rect);
                g.appendChild(text);
                g.addEventListener('mouseenter', function() { post('/playback/hover', { node_id: n.id }); });
                g.addEventListener('mouseleave', function() { post('/playback/hover', {}); });
                svg.appendChild(g);
                nodeEls[n.id] = g;
            });
        }

        function render(state) {
            const p = state.playback;
            const active = new Set(p.active_edges || []);
            const preview = new Set(state.preview ? state.preview.active_edges : []);
            Object.keys(edgeEls).forEach(function(id) {
                let cls = 'edge';
                if (active.has(id)) cls += ' active';
                else if (preview.has(id)) cls += ' preview';
                edgeEls[id].setAttribute('class', cls);
            });
            const highlight = new Set(p.highlight || []);
            Object.keys(nodeEls).forEach(function(id) {
                let cls = 'node';
                if (id === p.active_node) cls += ' active';
                else if (highlight.has(id)) cls += ' highlight';
                if (state.preview && state.preview.node_id === id) cls += ' preview';
                nodeEls[id].setAttribute('class', cls);
            });
            document.getElementById('step').textContent = p.step_count
                ? p.status + ' | step ' + (p.step_index + 1) + ' / ' + p.step_count
                : p.status;
            document.getElementById('description').textContent = p.description || '';
            document.getElementById('speedValue').textContent = state.speed + 'x';
        }

        function refresh() {
            fetch('/playback').then(function(res) { return res.json(); }).then(render);
        }

        function renderEvent(e) {
            const div = document.createElement('div');
            div.className = 'event';
            div.innerHTML = '<span class="ts">' + new Date(e.ts).toLocaleTimeString('en-US', { hour12: false }) +
                '</span> <span class="name">' + e.event + '</span>';
            eventsDiv.insertBefore(div, eventsDiv.firstChild);
            while (eventsDiv.children.length > 200) {
                eventsDiv.removeChild(eventsDiv.lastChild);
            }
            eventCount++;
            document.getElementById('count').textContent = eventCount;
        }

        function setStatus(status) {
            statusEl.className = status;
            statusEl.textContent = status.charAt(0).toUpperCase() + status.slice(1);
        }

        function connect() {
            if (ws && ws.readyState === WebSocket.OPEN) return;
            setStatus('connecting');

            const protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
            ws = new WebSocket(protocol + '//' + location.host + '/ws');

            ws.onopen = function() {
                setStatus('connected');
                if (reconnectTimer) {
                    clearTimeout(reconnectTimer);
                    reconnectTimer = null;
                }
                refresh();
            };
            ws.onmessage = function(msg) {
                try {
                    const e = JSON.parse(msg.data);
                    renderEvent(e);
                    if (e.event.startsWith('playback.') || e.event.startsWith('preview.')) refresh();
                } catch (err) {
                    console.error('Failed to parse event:', err);
                }
            };
            ws.onclose = function() {
                setStatus('disconnected');
                if (!reconnectTimer) {
                    reconnectTimer = setTimeout(function() { reconnectTimer = null; connect(); }, 3000);
                }
            };
            ws.onerror = function() { ws.close(); };
        }

        speedEl.addEventListener('change', function() {
            post('/playback/speed', { multiplier: parseFloat(speedEl.value) });
        });

        fetch('/scenarios').then(function(res) { return res.json(); }).then(function(list) {
            list.forEach(function(s) {
                const opt = document.createElement('option');
                opt.value = s.id;
                opt.textContent = s.title || s.id;
                scenarioEl.appendChild(opt);
            });
        });
        fetch('/diagram').then(function(res) { return res.json(); }).then(function(d) {
            drawDiagram(d);
            connect();
        });
    </script>
</body>
</html>`

// uiHandler serves the viewer page.
func (s *Server) uiHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, Response{Error: "not found"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(viewerHTML))
}
