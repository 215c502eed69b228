package session

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"

	"github.com/marwy1000/mkmsearch/pkg/config"
	"github.com/marwy1000/mkmsearch/pkg/delay"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

	loginAction     = "/PostGetAction/User_Login"
	twoFactorPath   = "/MultiFactorAuthentication"
	twoFactorAction = "/PostGetAction/User_MultiFactorAuthentication"

	tokenField = "__cmtkn"
)

// CodePrompter asks the user for a 6-digit two-factor code.
type CodePrompter func() (string, error)

type Options struct {
	// BaseURL is the game-scoped site root, e.g. https://www.cardmarket.com/en/Magic.
	BaseURL      string
	CookieFile   string
	Credentials  *config.CredentialStore
	Delay        *delay.Policy
	StartupDelay time.Duration
	Prompter     CodePrompter
	Logger       *log.Logger
}

// Session owns the authenticated HTTP client for the lifetime of a run.
type Session struct {
	http       *resty.Client
	base       *url.URL
	sitePath   string
	cookieFile string
	store      *config.CredentialStore
	delay      *delay.Policy
	startup    time.Duration
	prompt     CodePrompter
	logger     *log.Logger
}

// New builds a client that mimics a desktop browser: Chrome user-agent,
// cookie jar, cloudflare bypass transport and same-domain redirects only.
func New(opts Options) (*Session, error) {
	site, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	base := &url.URL{Scheme: site.Scheme, Host: site.Host, Path: "/"}

	client := resty.New()
	client.SetBaseURL(base.Scheme + "://" + base.Host)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(site.Hostname()))
	client.SetTimeout(time.Second * 30)

	prompter := opts.Prompter
	if prompter == nil {
		prompter = stdinPrompter
	}

	return &Session{
		http:       client,
		base:       base,
		sitePath:   strings.TrimSuffix(site.Path, "/"),
		cookieFile: opts.CookieFile,
		store:      opts.Credentials,
		delay:      opts.Delay,
		startup:    opts.StartupDelay,
		prompt:     prompter,
		logger:     opts.Logger,
	}, nil
}

// Get issues a GET against a path under the site root.
func (s *Session) Get(ctx context.Context, path string) (*resty.Response, error) {
	return s.http.R().SetContext(ctx).Get(s.sitePath + path)
}

// PostForm issues a form POST against a path under the site root.
func (s *Session) PostForm(ctx context.Context, path string, form map[string]string) (*resty.Response, error) {
	return s.http.R().SetContext(ctx).SetFormData(form).Post(s.sitePath + path)
}

// SitePath returns the game-scoped path prefix, e.g. /en/Magic.
func (s *Session) SitePath() string {
	return s.sitePath
}

// Login states. Modeling the flow as an explicit machine keeps every
// transition and its failure mode separately testable.
type loginState int

const (
	stateUnauthenticated loginState = iota
	stateTokenFetched
	stateSubmitted
	stateAwaitingTFA
	stateAuthenticated
	stateFailed
)

// Login authenticates the session. Persisted trusted-device cookies short
// circuit the whole flow; otherwise the anti-forgery token is scraped from the
// home page and the credentials are submitted, with an optional two-factor
// round trip. Cookies are persisted after every successful login.
func (s *Session) Login(ctx context.Context) error {
	creds, needsSaving, err := s.store.Resolve()
	if err != nil {
		return err
	}

	// A fixed pause before the first request keeps the anti-bot heuristics happy.
	time.Sleep(s.startup)

	state := stateUnauthenticated
	var (
		token     string
		challenge []byte
		loginErr  error
	)

	for {
		switch state {
		case stateUnauthenticated:
			if err := s.loadCookies(); err != nil && !os.IsNotExist(err) {
				s.logger.Debug("could not load cookies", "error", err)
			}
			res, err := s.Get(ctx, "")
			if err != nil {
				return fmt.Errorf("loading home page: %w", err)
			}
			if isLoggedIn(res.Body()) {
				s.logger.Info("already logged in via trusted cookies")
				state = stateAuthenticated
				continue
			}
			token, err = hiddenInput(res.Body(), tokenField)
			if err != nil {
				loginErr = err
				state = stateFailed
				continue
			}
			state = stateTokenFetched

		case stateTokenFetched:
			if err := s.delay.Wait(ctx); err != nil {
				return err
			}
			res, err := s.PostForm(ctx, loginAction, map[string]string{
				"username":     creds.Username,
				"userPassword": creds.Password,
				tokenField:     token,
				"referalPage":  s.sitePath,
			})
			if err != nil {
				return fmt.Errorf("submitting login: %w", err)
			}
			if strings.Contains(finalPath(res), twoFactorPath) {
				challenge = res.Body()
				state = stateAwaitingTFA
				continue
			}
			state = stateSubmitted

		case stateSubmitted:
			ok, err := s.confirmLoggedIn(ctx)
			if err != nil {
				return err
			}
			if !ok {
				loginErr = fmt.Errorf("%w: check your credentials", ErrAuthentication)
				state = stateFailed
				continue
			}
			state = stateAuthenticated

		case stateAwaitingTFA:
			freshToken, err := hiddenInput(challenge, tokenField)
			if err != nil {
				loginErr = err
				state = stateFailed
				continue
			}
			code, err := s.prompt()
			if err != nil {
				return err
			}
			if err := s.delay.Wait(ctx); err != nil {
				return err
			}
			if _, err := s.PostForm(ctx, twoFactorAction, map[string]string{
				tokenField:    freshToken,
				"mfaCode":     strings.TrimSpace(code),
				"trustDevice": "on",
			}); err != nil {
				return fmt.Errorf("submitting verification code: %w", err)
			}
			ok, err := s.confirmLoggedIn(ctx)
			if err != nil {
				return err
			}
			if !ok {
				loginErr = ErrTwoFactor
				state = stateFailed
				continue
			}
			state = stateAuthenticated

		case stateAuthenticated:
			if err := s.saveCookies(); err != nil {
				s.logger.Warn("could not persist cookies", "error", err)
			}
			if needsSaving {
				if err := s.store.Save(creds); err != nil {
					s.logger.Warn("could not save credentials", "error", err)
				}
			}
			s.logger.Info("login successful", "username", creds.Username)
			return nil

		case stateFailed:
			return loginErr
		}
	}
}

func (s *Session) confirmLoggedIn(ctx context.Context) (bool, error) {
	res, err := s.Get(ctx, "")
	if err != nil {
		return false, fmt.Errorf("confirming login: %w", err)
	}
	return isLoggedIn(res.Body()), nil
}

func isLoggedIn(body []byte) bool {
	return bytes.Contains(body, []byte("Logout"))
}

func hiddenInput(body []byte, name string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	value := doc.Find(fmt.Sprintf("input[name='%s']", name)).AttrOr("value", "")
	if value == "" {
		return "", fmt.Errorf("%w: input %q", ErrTokenNotFound, name)
	}
	return value, nil
}

func finalPath(res *resty.Response) string {
	if res.RawResponse == nil || res.RawResponse.Request == nil {
		return ""
	}
	return res.RawResponse.Request.URL.Path
}

func stdinPrompter() (string, error) {
	fmt.Print("Enter the 6-digit verification code: ")
	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && code == "" {
		return "", err
	}
	return strings.TrimSpace(code), nil
}
