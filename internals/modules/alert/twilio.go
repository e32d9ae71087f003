package alert

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/darwin-luque/uptime-monitor/config"
	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
)

const maxSMSLength = 1600

// TwilioNotifier sends the alert text as an SMS to the owner's phone
// number; the owner id is the national part of that number.
type TwilioNotifier struct {
	cfg        config.TwilioConfig
	httpClient *http.Client
}

func NewTwilioNotifier(cfg config.TwilioConfig, httpClient *http.Client) *TwilioNotifier {
	return &TwilioNotifier{cfg: cfg, httpClient: httpClient}
}

func (n *TwilioNotifier) Send(ctx context.Context, msg Message) error {
	const op = "alert.twilio.send"

	phone := strings.TrimSpace(msg.OwnerID)
	if phone == "" {
		return &apperror.Error{Kind: apperror.InvalidInput, Op: op, Message: "owner has no phone number"}
	}

	body := truncateText(msg.Text(), maxSMSLength)

	form := url.Values{}
	form.Set("From", n.cfg.FromPhone)
	form.Set("To", n.cfg.CountryCode+phone)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(n.cfg.BaseURL, "/"), url.PathEscape(n.cfg.AccountSID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return apperror.New(apperror.Internal, op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(n.cfg.AccountSID, n.cfg.AuthToken)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperror.New(apperror.Dependency, op,
			fmt.Errorf("twilio returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// truncateText cuts s to at most limit bytes without splitting a UTF-8 rune.
func truncateText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
