package server

const uiPageChromeCSS = `
    :root {
      --bg: #10161d;
      --bg2: #1b2838;
      --card: #16202d;
      --ink: #e6edf3;
      --muted: #8f98a0;
      --ok: #a4d007;
      --bad: #c15755;
      --accent: #66c0f4;
      --line: #2a3f5a;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      font-family: "Avenir Next", "Segoe UI", sans-serif;
      color: var(--ink);
      background: radial-gradient(circle at 20% 0%, var(--bg2), var(--bg));
      min-height: 100vh;
    }
    main { max-width: 1100px; margin: 24px auto; padding: 0 16px; }
    .card {
      background: var(--card);
      border: 1px solid var(--line);
      border-radius: 12px;
      padding: 16px;
      margin-bottom: 16px;
      box-shadow: 0 8px 24px rgba(0,0,0,.25);
    }
    .muted { color: var(--muted); font-size: 13px; }
    a { color: var(--accent); text-decoration: none; }
    a:hover { text-decoration: underline; }
    button {
      border: 1px solid var(--line);
      border-radius: 8px;
      padding: 8px 10px;
      font-size: 14px;
      line-height: 1.1;
      background: var(--card);
      color: var(--accent);
      cursor: pointer;
    }
    button:hover:not(:disabled) { background: #1f2f42; }
    button:disabled { opacity: 0.65; cursor: default; }
`
