package gateway

// serverConfigMarker はページシェル内の設定注入位置を示すマーカー。
// 注入されるのは公開可能な2つの真偽値のみで、シークレットは含めない。
const serverConfigMarker = "__SERVER_CONFIG__"

// indexHTML はトップページのシェル。
// serverConfigMarkerの位置にサーバー設定フラグメントを差し込んで返す。
const indexHTML = `<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>ShareGate</title>
<link rel="icon" href="/favicon.svg" type="image/svg+xml">
<script>window.SERVER_CONFIG = __SERVER_CONFIG__;</script>
<style>
  body { font-family: sans-serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; }
  header { display: flex; justify-content: space-between; align-items: center; }
  #files li { margin: 0.25rem 0; }
  .error { color: #b00020; }
</style>
</head>
<body>
<header>
  <h1>ShareGate</h1>
  <div id="account"></div>
</header>
<form id="share-form">
  <input id="share-url" type="url" placeholder="共有リンクのURL" required>
  <input id="share-password" type="password" placeholder="パスワード（任意）">
  <button type="submit">一覧を取得</button>
</form>
<ul id="files"></ul>
<p id="message" class="error"></p>
<script>
(function () {
  var cfg = window.SERVER_CONFIG || {};

  function renderAccount(user) {
    var el = document.getElementById("account");
    if (user) {
      el.textContent = user.name;
    } else if (cfg.ssoEnabled) {
      el.innerHTML = '<a href="/auth/login">ログイン</a>';
    }
  }

  fetch("/api/user", { method: "POST" })
    .then(function (res) { return res.json(); })
    .then(function (body) { renderAccount(body.user); });

  document.getElementById("share-form").addEventListener("submit", function (ev) {
    ev.preventDefault();
    var payload = {
      url: document.getElementById("share-url").value,
      password: document.getElementById("share-password").value
    };
    fetch("/api/list", {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      body: JSON.stringify(payload)
    })
      .then(function (res) { return res.json(); })
      .then(function (body) {
        var list = document.getElementById("files");
        list.innerHTML = "";
        document.getElementById("message").textContent = body.success ? "" : body.message;
        (body.files || []).forEach(function (f) {
          var li = document.createElement("li");
          li.textContent = f.name + (f.is_dir ? "/" : "");
          list.appendChild(li);
        });
      });
  });
})();
</script>
</body>
</html>
`

// faviconSVG はサイトアイコン。
const faviconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 32 32">
<rect width="32" height="32" rx="6" fill="#1a73e8"/>
<path d="M10 22V10h7a5 5 0 0 1 0 10h-3" fill="none" stroke="#fff" stroke-width="2.5" stroke-linecap="round"/>
</svg>
`
