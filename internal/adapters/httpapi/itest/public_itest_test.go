package itest

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
)

type inquiryResult struct {
	Status        string `json:"status"`
	InquiryID     string `json:"inquiryId"`
	AutoReplySent bool   `json:"autoReplySent"`
}

func validInquiry() map[string]any {
	return map[string]any{
		"name":        "  Jo   Fan ",
		"email":       "jo@example.com",
		"phone":       "+1 555 0100",
		"bookingDate": "2025-12-31",
		"message":     "Play our wedding?",
	}
}

func TestPublic_ITest(t *testing.T) {
	for _, b := range backendsFromEnv(t) {
		t.Run(string(b), func(t *testing.T) {
			srv := newTestServer(t, b, defaultServerOptions())
			web := srv.newBrowser(t)

			{
				status, body, _ := web.doJSON(t, http.MethodGet, "/healthz", nil)
				requireStatus(t, status, body, http.StatusOK)
			}
			{
				status, body, _ := web.doJSON(t, http.MethodGet, "/readyz", nil)
				requireStatus(t, status, body, http.StatusOK)
			}

			// No override stored yet: the defaults are served.
			{
				status, body, _ := web.doJSON(t, http.MethodGet, "/api/profile", nil)
				requireStatus(t, status, body, http.StatusOK)
				p := mustUnmarshal[struct {
					Name    string `json:"name"`
					Contact struct {
						Email string `json:"email"`
					} `json:"contact"`
					Members  []any `json:"members"`
					Projects []any `json:"projects"`
				}](t, body)
				if p.Name != "Aashkara" || p.Contact.Email != "aashkaraband@gmail.com" || len(p.Members) != 4 || len(p.Projects) != 2 {
					t.Fatalf("unexpected default profile: %s", string(body))
				}
			}

			{
				status, body, _ := web.doJSON(t, http.MethodGet, "/api/status", nil)
				requireStatus(t, status, body, http.StatusOK)
				st := mustUnmarshal[struct {
					Auth struct {
						IdentityProviderReady bool `json:"identityProviderReady"`
						AdminEmails           bool `json:"adminEmails"`
						AuthorizedCount       int  `json:"authorizedCount"`
						Config                struct {
							AuthorizedEmails string `json:"authorizedEmails"`
						} `json:"config"`
					} `json:"auth"`
					Email struct {
						IsConfigured bool              `json:"isConfigured"`
						Config       map[string]string `json:"config"`
					} `json:"email"`
				}](t, body)
				if !st.Auth.IdentityProviderReady || !st.Auth.AdminEmails || st.Auth.AuthorizedCount != 1 {
					t.Fatalf("auth status=%s", string(body))
				}
				if st.Auth.Config.AuthorizedEmails != "✓ 1 authorised" {
					t.Fatalf("authorizedEmails=%q", st.Auth.Config.AuthorizedEmails)
				}
				if !st.Email.IsConfigured || st.Email.Config["serviceId"] != "✓ Set" {
					t.Fatalf("email status=%s", string(body))
				}
			}
		})
	}
}

func TestInquiry_ITest(t *testing.T) {
	for _, b := range backendsFromEnv(t) {
		t.Run(string(b), func(t *testing.T) {
			srv := newTestServer(t, b, defaultServerOptions())
			web := srv.newBrowser(t)

			status, body, _ := web.doJSON(t, http.MethodPost, "/api/inquiries", validInquiry())
			requireStatus(t, status, body, http.StatusOK)
			res := mustUnmarshal[inquiryResult](t, body)
			if res.Status != "sent" || len(res.InquiryID) != 26 || !res.AutoReplySent {
				t.Fatalf("result=%+v", res)
			}

			sent := srv.email.sent()
			if len(sent) != 2 {
				t.Fatalf("sent %d emails, want 2", len(sent))
			}
			if sent[0]["template_id"] != "tpl-inquiry" || sent[1]["template_id"] != "tpl-autoreply" {
				t.Fatalf("templates=%v,%v", sent[0]["template_id"], sent[1]["template_id"])
			}
			params := sent[0]["template_params"].(map[string]any)
			if params["to_email"] != "aashkaraband@gmail.com" || params["from_name"] != "Jo Fan" {
				t.Fatalf("inquiry params=%v", params)
			}
			if params["address"] != "Not specified" || params["booking_date"] != "2025-12-31" {
				t.Fatalf("optional params=%v", params)
			}
		})
	}
}

func TestInquiry_Failures_ITest(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		srv := newTestServer(t, backendMemory, defaultServerOptions())
		web := srv.newBrowser(t)

		req := validInquiry()
		req["name"] = "   "
		req["email"] = "not-an-email"
		status, body, _ := web.doJSON(t, http.MethodPost, "/api/inquiries", req)
		er := requireErrorCode(t, status, body, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
		if er.Error.Details["name"] == nil || er.Error.Details["email"] == nil {
			t.Fatalf("details=%v", er.Error.Details)
		}
		if n := len(srv.email.sent()); n != 0 {
			t.Fatalf("sent %d emails for an invalid inquiry", n)
		}
	})

	t.Run("bad booking date", func(t *testing.T) {
		srv := newTestServer(t, backendMemory, defaultServerOptions())
		req := validInquiry()
		req["bookingDate"] = "next friday"
		status, body, _ := srv.newBrowser(t).doJSON(t, http.MethodPost, "/api/inquiries", req)
		requireErrorCode(t, status, body, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := newTestServer(t, backendMemory, defaultServerOptions())
		status, body, _ := srv.newBrowser(t).doJSON(t, http.MethodPost, "/api/inquiries", `{"name":`)
		requireErrorCode(t, status, body, http.StatusBadRequest, "BAD_REQUEST")
	})

	t.Run("missing credentials", func(t *testing.T) {
		opts := defaultServerOptions()
		opts.credentials.AutoReplyTemplateID = ""
		srv := newTestServer(t, backendMemory, opts)

		status, body, _ := srv.newBrowser(t).doJSON(t, http.MethodPost, "/api/inquiries", validInquiry())
		requireErrorCode(t, status, body, http.StatusServiceUnavailable, "EMAIL_NOT_CONFIGURED")
		if n := len(srv.email.sent()); n != 0 {
			t.Fatalf("sent %d emails without credentials", n)
		}
	})

	t.Run("inquiry rejected", func(t *testing.T) {
		srv := newTestServer(t, backendMemory, defaultServerOptions())
		srv.email.statusByTemplate["tpl-inquiry"] = http.StatusBadRequest

		status, body, _ := srv.newBrowser(t).doJSON(t, http.MethodPost, "/api/inquiries", validInquiry())
		er := requireErrorCode(t, status, body, http.StatusBadGateway, "INQUIRY_SEND_FAILED")
		if er.Error.Details["status"] != float64(http.StatusBadRequest) {
			t.Fatalf("details=%v", er.Error.Details)
		}
		if n := len(srv.email.sent()); n != 1 {
			t.Fatalf("sent %d emails, auto-reply must not follow a failed inquiry", n)
		}
	})

	t.Run("auto-reply rejected", func(t *testing.T) {
		srv := newTestServer(t, backendMemory, defaultServerOptions())
		srv.email.statusByTemplate["tpl-autoreply"] = http.StatusInternalServerError

		status, body, _ := srv.newBrowser(t).doJSON(t, http.MethodPost, "/api/inquiries", validInquiry())
		requireStatus(t, status, body, http.StatusOK)
		if res := mustUnmarshal[inquiryResult](t, body); res.Status != "sent" || res.AutoReplySent {
			t.Fatalf("result=%+v", res)
		}
	})
}

func TestWhatsAppLink_ITest(t *testing.T) {
	srv := newTestServer(t, backendMemory, defaultServerOptions())
	web := srv.newBrowser(t)

	status, body, _ := web.doJSON(t, http.MethodPost, "/api/whatsapp-link", validInquiry())
	requireStatus(t, status, body, http.StatusOK)
	link := mustUnmarshal[struct {
		URL string `json:"url"`
	}](t, body).URL

	const prefix = "https://wa.me/918768842665?text="
	if !strings.HasPrefix(link, prefix) {
		t.Fatalf("url=%q", link)
	}
	text, err := url.QueryUnescape(strings.TrimPrefix(link, prefix))
	if err != nil {
		t.Fatalf("unescape: %v", err)
	}
	if !strings.Contains(text, "*Name:* Jo Fan\n") || !strings.Contains(text, "*Booking Date:* 2025-12-31\n") {
		t.Fatalf("text=%q", text)
	}
	if strings.Contains(text, "*Event Address:*") {
		t.Fatalf("empty address should be left out: %q", text)
	}
	if n := len(srv.email.sent()); n != 0 {
		t.Fatalf("whatsapp path sent %d emails", n)
	}

	_, metricsBody, _ := web.doJSON(t, http.MethodGet, "/metrics", nil)
	if !strings.Contains(string(metricsBody), "bandsite_whatsapp_links_total 1") {
		t.Fatalf("metrics missing whatsapp counter")
	}
}

func TestCORS_Preflight_ITest(t *testing.T) {
	srv := newTestServer(t, backendMemory, defaultServerOptions())

	req, err := http.NewRequest(http.MethodOptions, srv.baseURL+"/api/inquiries", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", allowedOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != allowedOrigin {
		t.Fatalf("allow-origin=%q", got)
	}
	requireHeaderPresent(t, resp.Header, "Access-Control-Allow-Methods")
}
