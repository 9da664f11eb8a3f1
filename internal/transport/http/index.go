package httpserver

const indexHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>meterbalance</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; max-width: 48rem; }
code { background: #f3f3f3; padding: 0 .25rem; }
</style>
</head>
<body>
<h1>meterbalance</h1>
<p>Monthly consumption, loss reconciliation and trends for water, electricity and STP.</p>
<ul>
<li><code>GET /api/{utility}/months</code> ordered month index</li>
<li><code>GET /api/{utility}/report?start=Jan-25&amp;end=Mar-25&amp;zone=&amp;type=&amp;top=10</code> dashboard report</li>
<li><code>GET /healthz</code></li>
<li><code>GET /metrics</code></li>
</ul>
<p>Utilities: <code>water</code>, <code>electricity</code>, <code>stp</code>.</p>
</body>
</html>
`
