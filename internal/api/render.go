// Package api contains the HTTP handlers, routing, and page rendering for
// the 3-D Secure payment service.
package api

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopkit/shopkit-payments/internal/domain"
)

// browserInfoPage is the auto-submitting form that gathers the device
// attributes 3DS risk scoring wants. Server-visible headers seed the hidden
// fields; the script overwrites them with live values before submitting.
var browserInfoPage = template.Must(template.New("browserInfo").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta http-equiv="Content-type" content="text/html;charset=UTF-8" />
  </head>
  <body>

<form id="collectBrowserInfo" method="post" action="{{.Action}}">
<input type="hidden" name="browserInfo[deviceChannel]" value="browser" />
<input type="hidden" name="browserInfo[deviceIdentity]" value="{{.UserAgent}}" />
<input type="hidden" name="browserInfo[deviceTimeZone]" value="0" />
<input type="hidden" name="browserInfo[deviceCapabilities]" value="" />
<input type="hidden" name="browserInfo[deviceScreenResolution]" value="1x1x1" />
<input type="hidden" name="browserInfo[deviceAcceptContent]" value="{{.Accept}}" />
<input type="hidden" name="browserInfo[deviceAcceptEncoding]" value="{{.AcceptEncoding}}" />
<input type="hidden" name="browserInfo[deviceAcceptLanguage]" value="{{.AcceptLanguage}}" />
<input type="hidden" name="browserInfo[deviceAcceptCharset]" value="" />
<input type="hidden" name="browserInfo[deviceOperatingSystem]" value="win" />
<input type="hidden" name="browserInfo[deviceType]" value="desktop" />
</form>
<script>
var screenWidth = (window && window.screen ? window.screen.width : '0');
var screenHeight = (window && window.screen ? window.screen.height : '0');
var screenDepth = (window && window.screen ? window.screen.colorDepth : '0');
var identity = (window && window.navigator ? window.navigator.userAgent : '');
var language = (window && window.navigator ? (window.navigator.language ? window.navigator.language : window.navigator.browserLanguage) : '');
var timezone = (new Date()).getTimezoneOffset();
var java = (window && window.navigator ? navigator.javaEnabled() : false);
var fields = document.forms.collectBrowserInfo.elements;
fields['browserInfo[deviceIdentity]'].value = identity;
fields['browserInfo[deviceTimeZone]'].value = timezone;
fields['browserInfo[deviceCapabilities]'].value = 'javascript' + (java ? ',java' : '');
fields['browserInfo[deviceAcceptLanguage]'].value = language;
fields['browserInfo[deviceScreenResolution]'].value = screenWidth + 'x' + screenHeight + 'x' + screenDepth;
window.setTimeout('document.forms.collectBrowserInfo.submit()', 0);
</script>

  </body>
</html>`))

// challengePage submits the challenge fields to the ACS in a visible iframe,
// fires the silent method ping into a hidden frame when present, and falls
// back to a top-level submission if the ACS refuses to be framed (no iframe
// load signal within 1.2s). The challenge is submitted exactly once via one
// of the two channels.
var challengePage = template.Must(template.New("challenge").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta http-equiv="Content-type" content="text/html;charset=UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>
      body { font-family: system-ui, -apple-system, Segoe UI, Roboto, Helvetica, Arial; margin: 0; }
      .wrap { max-width: 720px; margin: 48px auto; padding: 0 16px; text-align: center; }
      iframe.challenge { width: 100%; height: 560px; border: 0; background: #fafafa; }
      .note { color: #666; font-size: 14px; margin-top: 12px; }
    </style>
  </head>
  <body>

<div class="wrap">
  <h2>Verifying your payment&hellip;</h2>
  <p class="note">Please don&rsquo;t close this window.</p>

  <iframe class="challenge" name="threeDSChallengeFrame" id="threeDSChallengeFrame" title="3-D Secure Challenge"></iframe>

{{if .HasMethod}}
  <iframe name="threeDSMethodFrame" style="display:none;width:0;height:0;border:0;"></iframe>
  <form id="methodForm" target="threeDSMethodFrame" method="POST" action="{{.MethodURL}}" style="display:none;">
    <input type="hidden" name="threeDSMethodData" value="{{.MethodData}}" />
  </form>
{{end}}

  <form id="challengeFormIframe" target="threeDSChallengeFrame" method="POST" action="{{.ACSURL}}" style="display:none;">
{{range $k, $v := .Fields}}    <input type="hidden" name="{{$k}}" value="{{$v}}" />
{{end}}  </form>

  <form id="challengeFormTop" target="_self" method="POST" action="{{.ACSURL}}" style="display:none;">
{{range $k, $v := .Fields}}    <input type="hidden" name="{{$k}}" value="{{$v}}" />
{{end}}  </form>
</div>

<script>
(function () {
  try { var mf = document.getElementById('methodForm'); if (mf) mf.submit(); } catch (e) {}

  var iframe = document.getElementById('threeDSChallengeFrame');
  var iframeLoaded = false;
  try { iframe.addEventListener('load', function(){ iframeLoaded = true; }, { once: true }); } catch (e) {}

  try { document.getElementById('challengeFormIframe').submit(); } catch (e) {}

  setTimeout(function () {
    if (!iframeLoaded) {
      try { document.getElementById('challengeFormTop').submit(); } catch (e) {}
    }
  }, 1200);
})();
</script>

  </body>
</html>`))

// successPage hands the order confirmation off to the merchant backend with
// an auto-submitting form, falling back to a plain thank-you when no handoff
// URL is configured.
var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta http-equiv="Content-type" content="text/html;charset=UTF-8" />
  </head>
  <body>

{{if .HandoffURL}}
<form id="handoff" method="post" action="{{.HandoffURL}}">
  <input type="hidden" name="items" value="{{.Items}}" />
  <input type="hidden" name="response" value="{{.Response}}" />
</form>
<script>
(function () {
  try {
    var f = document.getElementById('handoff');
    if (f) f.submit();
  } catch (e) {
    setTimeout(function(){ var f = document.getElementById('handoff'); if (f) f.submit(); }, 150);
  }
})();
</script>
<noscript>
  <p>Redirecting&hellip; If this page doesn&rsquo;t continue automatically, click the button below.</p>
  <button type="submit" form="handoff">Continue</button>
</noscript>
{{else}}
<p>Thank you for your payment.</p>
{{end}}

  </body>
</html>`))

// failurePage covers declines and gateway failures alike. Messages are
// descriptive but never echo card data.
var failurePage = template.Must(template.New("failure").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta http-equiv="Content-type" content="text/html;charset=UTF-8" />
  </head>
  <body>

<p>Failed to take payment: message={{.Message}} code={{.Code}}</p>

  </body>
</html>`))

type browserInfoData struct {
	Action         string
	UserAgent      string
	Accept         string
	AcceptEncoding string
	AcceptLanguage string
}

func renderBrowserInfo(c *gin.Context, action string) {
	writePage(c, http.StatusOK, browserInfoPage, browserInfoData{
		Action:         action,
		UserAgent:      c.GetHeader("User-Agent"),
		Accept:         c.GetHeader("Accept"),
		AcceptEncoding: c.GetHeader("Accept-Encoding"),
		AcceptLanguage: c.GetHeader("Accept-Language"),
	})
}

type challengeData struct {
	ACSURL     string
	Fields     map[string]string
	HasMethod  bool
	MethodURL  string
	MethodData string
}

func renderChallenge(c *gin.Context, ch *domain.Challenge) {
	writePage(c, http.StatusOK, challengePage, challengeData{
		ACSURL:     ch.ACSURL,
		Fields:     ch.Fields,
		HasMethod:  ch.MethodURL != "" && ch.MethodData != "",
		MethodURL:  ch.MethodURL,
		MethodData: ch.MethodData,
	})
}

type successData struct {
	HandoffURL string
	Items      string
	Response   string
}

type failureData struct {
	Code    string
	Message string
}

func renderFailure(c *gin.Context, status int, code, message string) {
	writePage(c, status, failurePage, failureData{Code: code, Message: message})
}

func writePage(c *gin.Context, status int, tmpl *template.Template, data any) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := tmpl.Execute(c.Writer, data); err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}
