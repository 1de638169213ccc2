package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// resetPageHTML is the page the emailed reset link opens when no separate
// frontend is configured. It checks the token first, then posts the new
// password to the API.
var resetPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8" />
<meta name="viewport" content="width=device-width, initial-scale=1.0" />
<title>FitCity - Reset password</title>
<style>
body { font-family: Arial, sans-serif; margin: 0; background: linear-gradient(135deg,#4a90e2,#9013fe); min-height: 100vh; display: flex; justify-content: center; align-items: center; }
.card { background: #fff; color: #333; padding: 24px; border-radius: 8px; width: 90%; max-width: 420px; box-shadow: 0 10px 40px rgba(0,0,0,0.2); }
input { width: 100%; padding: 10px; margin: 8px 0; border: 1px solid #ccc; border-radius: 4px; box-sizing: border-box; }
button { width: 100%; padding: 12px; font-size: 16px; border: none; border-radius: 4px; cursor: pointer; background: #4a90e2; color: #fff; }
#msg { margin-top: 12px; }
</style>
</head>
<body>
<div class="card">
  <h2>Reset your password</h2>
  <form id="reset" onsubmit="return submitReset(event)" style="display:none">
    <input type="password" name="password" placeholder="New password (min. 6 characters)" minlength="6" required />
    <input type="password" name="confirm" placeholder="Confirm new password" minlength="6" required />
    <button type="submit">Reset password</button>
  </form>
  <div id="msg">Checking your link...</div>
</div>
<script>
const token = new URLSearchParams(window.location.search).get('token') || '';
const msg = document.getElementById('msg');
const form = document.getElementById('reset');

function post(path, body) {
  return fetch('/api/v1/auth/' + path, {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    body: JSON.stringify(body)
  }).then(r => r.json());
}

post('verify-reset-token', { token }).then(res => {
  if (res.valid) {
    form.style.display = 'block';
    msg.textContent = '';
  } else {
    msg.textContent = 'This reset link is invalid or has expired.';
  }
}).catch(() => { msg.textContent = 'Unable to reach the server.'; });

function submitReset(e) {
  e.preventDefault();
  const data = new FormData(form);
  if (data.get('password') !== data.get('confirm')) {
    msg.textContent = 'Passwords do not match.';
    return false;
  }
  post('reset-password', { token, password: data.get('password') }).then(res => {
    msg.textContent = res.message;
    if (res.status === 'success') { form.style.display = 'none'; }
  }).catch(() => { msg.textContent = 'Unable to reach the server.'; });
  return false;
}
</script>
</body>
</html>`

// RegisterPages serves the standalone reset page at /reset-password.
func RegisterPages(e *echo.Echo) {
	e.GET("/reset-password", func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", "no-store")
		c.Response().Header().Set("Referrer-Policy", "no-referrer")
		return c.HTML(http.StatusOK, resetPageHTML)
	})
}
