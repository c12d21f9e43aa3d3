package server

const uiIndexCSS = `
    h1 { margin: 0; font-size: 26px; }
    h2 { margin: 0 0 12px; font-size: 18px; }
    .header { display: flex; justify-content: space-between; align-items: center; gap: 12px; margin-bottom: 16px; }
    .search { position: relative; width: 360px; max-width: 100%; }
    .search input {
      width: 100%;
      border: 1px solid var(--line);
      border-radius: 8px;
      padding: 9px 12px;
      font-size: 14px;
      background: #0e141b;
      color: var(--ink);
    }
    .dropdown {
      display: none;
      position: absolute;
      top: 42px;
      left: 0;
      right: 0;
      z-index: 20;
      background: var(--card);
      border: 1px solid var(--line);
      border-radius: 10px;
      max-height: 420px;
      overflow-y: auto;
    }
    .dropdown.open { display: block; }
    .dropdown .tags { display: flex; flex-wrap: wrap; gap: 6px; padding: 10px; border-bottom: 1px solid var(--line); }
    .chip { font-size: 12px; padding: 3px 9px; border-radius: 999px; background: #22364d; color: var(--accent); cursor: pointer; }
    .hit { display: flex; gap: 10px; padding: 8px 10px; cursor: pointer; align-items: center; }
    .hit:hover { background: #1f2f42; }
    .hit img { width: 92px; height: 43px; object-fit: cover; border-radius: 4px; }
    .price { margin-left: auto; white-space: nowrap; }
    .discount { background: #4c6b22; color: var(--ok); padding: 2px 6px; border-radius: 4px; font-weight: 600; }
    .strike { text-decoration: line-through; color: var(--muted); font-size: 12px; margin-right: 6px; }
    .carousel { display: grid; grid-template-columns: 2fr 1fr; gap: 0; overflow: hidden; padding: 0; }
    .carousel .banner { width: 100%; aspect-ratio: 16 / 9; object-fit: cover; display: block; background: #0b1016; }
    .carousel .side { padding: 16px; display: flex; flex-direction: column; gap: 10px; }
    .shots { display: grid; grid-template-columns: 1fr 1fr; gap: 6px; }
    .shots img { width: 100%; border-radius: 4px; }
    .controls { display: flex; align-items: center; justify-content: center; gap: 10px; margin: 10px 0 16px; }
    .dots { display: flex; gap: 6px; }
    .dot { width: 14px; height: 8px; border-radius: 3px; background: #2a3f5a; cursor: pointer; border: 0; padding: 0; }
    .dot.active { background: var(--ink); }
    .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(220px, 1fr)); gap: 12px; }
    .tile img { width: 100%; border-radius: 6px; }
    .review { color: var(--accent); }
`
