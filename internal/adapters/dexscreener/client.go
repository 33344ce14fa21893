package dexscreener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/pairscout/internal/clock"
	"github.com/alejandrodnm/pairscout/internal/domain"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL     = "https://api.dexscreener.com/latest"
	defaultTimeout     = 10 * time.Second
	defaultMinInterval = 300 * time.Millisecond

	defaultBreakerFailures = 5
	defaultBreakerOpen     = 30 * time.Second

	maxBodyBytes = 8 << 20
)

// BreakerSettings controla el circuit breaker del proveedor.
type BreakerSettings struct {
	// ConsecutiveFailures transitorios para abrir el circuito.
	ConsecutiveFailures uint32
	// OpenTimeout es cuánto permanece abierto antes de probar de nuevo.
	OpenTimeout time.Duration
}

// Options configura el Client. Los campos vacíos toman valores por defecto.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	MinInterval time.Duration
	Breaker     BreakerSettings
	Clock       clock.Clock
	HTTPClient  *http.Client
}

// Client es el HTTP client de DexScreener.
// Todas las peticiones del proceso comparten un único limiter con intervalo
// mínimo entre llamadas. No hay cache ni reintentos: cada llamada sale a la red
// y los reintentos son decisión de la estrategia que llama.
type Client struct {
	http    *http.Client
	baseURL string
	clock   clock.Clock
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewClient crea un Client con las opciones dadas.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = defaultMinInterval
	}
	if opts.Breaker.ConsecutiveFailures == 0 {
		opts.Breaker.ConsecutiveFailures = defaultBreakerFailures
	}
	if opts.Breaker.OpenTimeout <= 0 {
		opts.Breaker.OpenTimeout = defaultBreakerOpen
	}
	if opts.Clock == nil {
		opts.Clock = clock.System()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	failures := opts.Breaker.ConsecutiveFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dexscreener",
		MaxRequests: 1,
		Timeout:     opts.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Solo los fallos transitorios cuentan: un 404 es una respuesta válida del proveedor.
		IsSuccessful: func(err error) bool {
			return err == nil || !domain.IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		http:    httpClient,
		baseURL: opts.BaseURL,
		clock:   opts.Clock,
		limiter: rate.NewLimiter(rate.Every(opts.MinInterval), 1),
		breaker: breaker,
	}
}

// get hace un único GET respetando el intervalo mínimo y el breaker.
//
// La petición HTTP en curso no se aborta si ctx se cancela: termina (acotada por
// el timeout del http.Client) y su resultado se descarta.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path

	if c.breaker.State() == gobreaker.StateOpen {
		return nil, circuitOpenError(url, gobreaker.ErrOpenState)
	}

	if err := c.waitTurn(ctx); err != nil {
		return nil, fmt.Errorf("dexscreener.get: rate limiter: %w", err)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, url)
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		slog.Debug("discarding response of abandoned request", "url", url)
		return nil, ctxErr
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, circuitOpenError(url, err)
		}
		return nil, err
	}
	return out.([]byte), nil
}

// waitTurn reserva el siguiente hueco del limiter y duerme hasta él con el reloj
// inyectado. Si ctx se cancela mientras espera, devuelve el hueco.
func (c *Client) waitTurn(ctx context.Context) error {
	now := c.clock.Now()
	r := c.limiter.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("reservation not allowed")
	}
	delay := r.DelayFrom(now)
	if delay <= 0 {
		return nil
	}
	if err := c.clock.Sleep(ctx, delay); err != nil {
		r.CancelAt(c.clock.Now())
		return err
	}
	return nil
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.FetchError{Op: "GET", URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Op: "GET", URL: url, Transient: true, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		transient := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		if resp.StatusCode == http.StatusTooManyRequests {
			slog.Warn("rate limited by API", "url", url)
		}
		return nil, &domain.FetchError{
			Op:         "GET",
			URL:        url,
			StatusCode: resp.StatusCode,
			Transient:  transient,
			Err:        fmt.Errorf("unexpected status: %s", snippet(body)),
		}
	}
	if err != nil {
		return nil, &domain.FetchError{Op: "GET", URL: url, Transient: true, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

func circuitOpenError(url string, cause error) error {
	return &domain.FetchError{
		Op:  "GET",
		URL: url,
		Err: fmt.Errorf("%w: %v", domain.ErrCircuitOpen, cause),
	}
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
