package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"finance_tracker/internal/apperr"
	"finance_tracker/internal/logger"
	"finance_tracker/internal/models"
)

const (
	msgInvalidDate         = "Invalid date format. Use YYYY-MM-DD"
	msgCurrencyUnavailable = "Currency service unavailable"
	msgCurrencyTimeout     = "Currency service timeout"
	msgRateUnavailable     = "Currency rate unavailable for requested currency"

	dateLayout = "2006-01-02"
)

// CurrencyConfig points the service at the rate providers.
type CurrencyConfig struct {
	PrimaryURL  string // CBR daily JSON
	FallbackURL string // open.er-api.com style latest rates
	Timeout     time.Duration
	Client      *http.Client
}

// CurrencyService proxies RUB-based exchange rates from the CBR feed, with a
// fallback provider when the feed is unreachable.
type CurrencyService struct {
	cfg    CurrencyConfig
	client *http.Client
	log    *logger.Logger
	now    func() time.Time
}

func NewCurrencyService(cfg CurrencyConfig, log *logger.Logger) *CurrencyService {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	cfg.PrimaryURL = strings.TrimRight(cfg.PrimaryURL, "/")
	cfg.FallbackURL = strings.TrimRight(cfg.FallbackURL, "/")
	return &CurrencyService{cfg: cfg, client: client, log: log, now: time.Now}
}

// cbrDaily is the subset of https://www.cbr-xml-daily.ru/daily_json.js we read.
type cbrDaily struct {
	Date   string `json:"Date"`
	Valute map[string]struct {
		Nominal float64 `json:"Nominal"`
		Value   float64 `json:"Value"`
	} `json:"Valute"`
}

type fallbackRates struct {
	Base     string             `json:"base"`
	BaseCode string             `json:"base_code"`
	Date     string             `json:"date"`
	Rates    map[string]float64 `json:"rates"`
}

// Rates returns units of each supported currency per one RUB. date is
// YYYY-MM-DD or empty for the latest rates; future dates mean latest.
func (s *CurrencyService) Rates(ctx context.Context, date string) (*models.Rates, error) {
	day, err := s.normalizeDate(date)
	if err != nil {
		return nil, err
	}

	primary := s.cfg.PrimaryURL + "/daily_json.js"
	if day != "" {
		primary = s.cfg.PrimaryURL + "/archive/" + strings.ReplaceAll(day, "-", "/") + "/daily_json.js"
	}

	var daily cbrDaily
	perr := s.getJSON(ctx, primary, &daily)
	if perr == nil {
		return s.fromCBR(daily), nil
	}
	if isTimeout(perr) {
		return nil, apperr.Timeout(msgCurrencyTimeout)
	}
	s.log.Warnw("currency_primary_failed", "error", perr)

	var fb fallbackRates
	ferr := s.getJSON(ctx, s.cfg.FallbackURL+"/"+models.CurrencyRUB, &fb)
	if ferr == nil {
		return s.fromFallback(fb), nil
	}
	if isTimeout(ferr) {
		return nil, apperr.Timeout(msgCurrencyTimeout)
	}
	s.log.Errorw("currency_fallback_failed", "error", ferr)
	return nil, apperr.Unavailable(msgCurrencyUnavailable)
}

// Convert converts an amount between supported currencies through RUB and
// rounds to two decimals.
func (s *CurrencyService) Convert(ctx context.Context, p ConvertParams) (*models.Conversion, error) {
	from, to := strings.ToUpper(p.From), strings.ToUpper(p.To)
	if !models.IsSupportedCurrency(from) || !models.IsSupportedCurrency(to) {
		return nil, apperr.BadRequest(msgUnsupportedCurrency)
	}
	if from == to {
		return &models.Conversion{Amount: p.Amount, From: from, To: to, Converted: p.Amount}, nil
	}

	rates, err := s.Rates(ctx, p.Date)
	if err != nil {
		return nil, err
	}
	rf, rt := rates.Rates[from], rates.Rates[to]
	if rf == 0 || rt == 0 {
		return nil, apperr.Unavailable(msgRateUnavailable)
	}

	converted := p.Amount / rf * rt
	return &models.Conversion{
		Amount:    p.Amount,
		From:      from,
		To:        to,
		Converted: math.Round(converted*100) / 100,
	}, nil
}

func (s *CurrencyService) normalizeDate(date string) (string, error) {
	if date == "" {
		return "", nil
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", apperr.BadRequest(msgInvalidDate)
	}
	today, _ := time.Parse(dateLayout, s.now().UTC().Format(dateLayout))
	if d.After(today) {
		return "", nil
	}
	return d.Format(dateLayout), nil
}

// getJSON fetches url into dst. Each call gets the full configured timeout.
func (s *CurrencyService) getJSON(ctx context.Context, url string, dst any) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("GET %s: decode: %w", url, err)
	}
	return nil
}

func (s *CurrencyService) fromCBR(d cbrDaily) *models.Rates {
	out := &models.Rates{
		Base:  models.CurrencyRUB,
		Date:  s.now().UTC().Format(dateLayout),
		Rates: map[string]float64{models.CurrencyRUB: 1},
	}
	if ts, err := time.Parse(time.RFC3339, d.Date); err == nil {
		out.Date = ts.Format(dateLayout)
	}
	for _, code := range models.SupportedCurrencies[1:] {
		v, ok := d.Valute[code]
		if !ok || v.Value == 0 {
			out.Rates[code] = 0
			continue
		}
		nominal := v.Nominal
		if nominal == 0 {
			nominal = 1
		}
		out.Rates[code] = nominal / v.Value
	}
	return out
}

func (s *CurrencyService) fromFallback(f fallbackRates) *models.Rates {
	out := &models.Rates{
		Base:  models.CurrencyRUB,
		Date:  f.Date,
		Rates: map[string]float64{models.CurrencyRUB: 1},
	}
	if base := firstNonEmpty(f.Base, f.BaseCode); base != "" {
		out.Base = base
	}
	if out.Date == "" {
		out.Date = s.now().UTC().Format(dateLayout)
	}
	for _, code := range models.SupportedCurrencies[1:] {
		out.Rates[code] = f.Rates[code]
	}
	return out
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
