package server

const indexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>stitch</title>
  <style>
` + uiPageChromeCSS + uiIndexCSS + `
  </style>
</head>
<body>
  <main>
    <div class="header">
      <h1>stitch</h1>
      <div class="search">
        <input id="q" type="search" placeholder="search the store" autocomplete="off" />
        <div id="dropdown" class="dropdown"></div>
      </div>
    </div>
    <h2>Featured &amp; Recommended</h2>
    <div id="featured" class="card carousel"></div>
    <div class="controls">
      <button id="prev" aria-label="previous">&lsaquo;</button>
      <div id="dots" class="dots"></div>
      <button id="next" aria-label="next">&rsaquo;</button>
    </div>
    <div class="card">
      <h2 id="gridTitle"></h2>
      <div id="grid" class="grid"></div>
    </div>
    <div id="status" class="muted"></div>
  </main>
  <script>
` + uiIndexJS + `
  </script>
</body>
</html>
`
