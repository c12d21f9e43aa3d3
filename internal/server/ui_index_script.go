package server

const uiIndexJS = `
    const state = { session: null, events: null, count: 0, index: 0 };

    async function api(method, path) {
      const res = await fetch(path, { method, keepalive: method === 'DELETE' });
      if (!res.ok) throw new Error(method + ' ' + path + ': ' + res.status);
      return res.json();
    }

    function esc(v) {
      return String(v == null ? '' : v).replace(/[&<>"']/g, c => ({'&':'&amp;','<':'&lt;','>':'&gt;','"':'&quot;',"'":'&#39;'}[c]));
    }

    function priceHTML(g) {
      if (g.is_free) return '<span class="price">Free to Play</span>';
      if (g.discount_percentage > 0) {
        return '<span class="price"><span class="discount">-' + g.discount_percentage + '%</span> ' +
          '<span class="strike">' + esc(g.base_price_label) + '</span>' + esc(g.price_label) + '</span>';
      }
      return '<span class="price">' + esc(g.price_label) + '</span>';
    }

    function renderFeatured(g, index, count) {
      state.index = index;
      state.count = count;
      const el = document.getElementById('featured');
      const shots = (g.screenshots || []).slice(0, 4).map(s => '<img src="' + esc(s) + '" alt="" />').join('');
      el.innerHTML =
        '<img class="banner" src="' + esc(g.banner) + '" alt="' + esc(g.title) + '" />' +
        '<div class="side">' +
          '<h2>' + esc(g.title) + '</h2>' +
          '<div class="shots">' + shots + '</div>' +
          '<div class="muted">' + (g.top_seller ? 'Top Seller · ' : '') + esc((g.tags || []).join(', ')) + '</div>' +
          '<div class="review">' + esc(g.review_label) + ' (' + esc(g.review_count_label) + ')</div>' +
          priceHTML(g) +
        '</div>';
      const dots = document.getElementById('dots');
      dots.innerHTML = '';
      for (let i = 0; i < count; i++) {
        const b = document.createElement('button');
        b.className = 'dot' + (i === index ? ' active' : '');
        b.onclick = () => carouselAction('goto?index=' + i);
        dots.appendChild(b);
      }
    }

    async function carouselAction(action) {
      if (!state.session) return;
      try {
        await api('POST', '/api/v1/carousel/sessions/' + state.session + '/' + action);
      } catch (_) {}
    }

    async function startCarousel() {
      const sess = await api('POST', '/api/v1/carousel/sessions');
      state.session = sess.session_id;
      if (sess.count > 0) renderFeatured(sess.current, sess.index, sess.count);
      const es = new EventSource('/api/v1/carousel/sessions/' + sess.session_id + '/events');
      es.addEventListener('select', ev => {
        const evt = JSON.parse(ev.data);
        renderFeatured(evt.game, evt.index, evt.count);
      });
      es.addEventListener('closed', () => {
        es.close();
        setTimeout(startCarousel, 1000);
      });
      state.events = es;
    }

    function wireCarousel() {
      const box = document.getElementById('featured');
      box.addEventListener('mouseenter', () => carouselAction('pause'));
      box.addEventListener('mouseleave', () => carouselAction('resume'));
      document.getElementById('prev').onclick = () => carouselAction('prev');
      document.getElementById('next').onclick = () => carouselAction('next');
      window.addEventListener('beforeunload', () => {
        if (state.session) api('DELETE', '/api/v1/carousel/sessions/' + state.session).catch(() => {});
      });
    }

    let searchTimer = null;
    function wireSearch() {
      const input = document.getElementById('q');
      const dd = document.getElementById('dropdown');
      input.addEventListener('input', () => {
        clearTimeout(searchTimer);
        searchTimer = setTimeout(() => runSearch(input.value), 150);
      });
      document.addEventListener('click', ev => {
        if (!dd.contains(ev.target) && ev.target !== input) dd.classList.remove('open');
      });
    }

    async function runSearch(q) {
      const dd = document.getElementById('dropdown');
      if (!q.trim()) { dd.classList.remove('open'); return; }
      const res = await api('GET', '/api/v1/search?q=' + encodeURIComponent(q));
      const tags = res.tags.map(t => '<span class="chip" data-tag="' + esc(t.name) + '">' + esc(t.name) + ' (' + t.count + ')</span>').join('');
      const hits = res.games.map(g =>
        '<div class="hit" data-id="' + g.id + '"><img src="' + esc(g.thumbnail) + '" alt="" /><span>' + esc(g.title) + '</span>' + priceHTML(g) + '</div>'
      ).join('');
      dd.innerHTML = (tags ? '<div class="tags">' + tags + '</div>' : '') + (hits || '<div class="hit muted">No results</div>');
      dd.querySelectorAll('.chip').forEach(c => c.onclick = () => showTag(c.dataset.tag));
      dd.classList.add('open');
    }

    async function showTag(tag) {
      document.getElementById('dropdown').classList.remove('open');
      const res = await api('GET', '/api/v1/games?tags=' + encodeURIComponent(tag));
      renderGrid('Tagged "' + tag + '"', res.games);
    }

    function renderGrid(title, games) {
      document.getElementById('gridTitle').textContent = title;
      document.getElementById('grid').innerHTML = games.map(g =>
        '<div class="tile"><img src="' + esc(g.thumbnail) + '" alt="" /><div>' + esc(g.title) + '</div>' + priceHTML(g) + '</div>'
      ).join('');
    }

    async function boot() {
      wireSearch();
      wireCarousel();
      try {
        await startCarousel();
        const top = await api('GET', '/api/v1/collections/top_sellers');
        renderGrid('Top Sellers', top.games);
      } catch (err) {
        document.getElementById('status').textContent = String(err);
      }
    }
    boot();
`
