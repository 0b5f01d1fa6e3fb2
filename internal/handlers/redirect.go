package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CADPage - сторінка порталу, на яку потрапляє браузер після входу
const CADPage = "/cad.html"

// redirectPage: meta refresh і location.replace ведуть на одну й ту саму адресу
var redirectPage = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="referrer" content="no-referrer">
<title>Loading…</title>
<meta http-equiv="refresh" content="0;url={{.Target}}">
<style>
body { margin: 0; font-family: system-ui, sans-serif; display: grid; place-items: center; min-height: 100vh; background: #0b1020; color: #e8eefc; }
.card { text-align: center; padding: 2rem 2.5rem; border: 1px solid #243055; border-radius: 12px; background: #121a33; }
.muted { color: #a9b4d8; font-size: 0.95rem; }
</style>
</head>
<body>
<div class="card">
<h1>Signing you in…</h1>
<p class="muted">Redirecting to CAD</p>
</div>
<script>
try { window.location.replace({{.Target}}); } catch (_) { window.location.href = {{.Target}}; }
</script>
</body>
</html>
`))

// redirectTarget будує <origin>/cad.html?token=<jwt>
func redirectTarget(origin, token string) string {
	q := url.Values{}
	q.Set("token", token)
	return strings.TrimRight(origin, "/") + CADPage + "?" + q.Encode()
}

// respondWithRedirect віддає HTML, що перенаправляє браузер на портал з токеном.
// Cookies flow очищуються тут же, відповідь не кешується.
func (h *AuthHandler) respondWithRedirect(c *gin.Context, token, origin string) {
	h.clearFlowCookies(c)

	var buf bytes.Buffer
	err := redirectPage.Execute(&buf, struct{ Target string }{Target: redirectTarget(origin, token)})
	if err != nil {
		logrus.WithError(err).Error("Failed to render redirect page")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
