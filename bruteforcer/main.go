// Command bruteforcer plays the shared minefield through the REST API until
// the field is cleared. It flags and reveals whatever the visible numbers
// prove and guesses only when nothing can be deduced; a detonation resets the
// field and starts a new attempt.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/partyhost/api"
)

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) State(ctx context.Context) (*api.FieldView, error) {
	var view api.FieldView
	if err := c.do(ctx, "GET", "/api/minefield", nil, &view); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &view, nil
}

func (c *Client) Reveal(ctx context.Context, row, col int) (*api.RevealResult, error) {
	var result api.RevealResult
	if err := c.do(ctx, "POST", "/api/minefield/reveal", cellBody(row, col), &result); err != nil {
		return nil, fmt.Errorf("reveal (%d,%d): %w", row, col, err)
	}
	return &result, nil
}

func (c *Client) Flag(ctx context.Context, row, col int) (*api.FieldView, error) {
	var view api.FieldView
	if err := c.do(ctx, "POST", "/api/minefield/flag", cellBody(row, col), &view); err != nil {
		return nil, fmt.Errorf("flag (%d,%d): %w", row, col, err)
	}
	return &view, nil
}

type ResetResponse struct {
	Message string        `json:"message"`
	Field   api.FieldView `json:"field"`
}

func (c *Client) Reset(ctx context.Context) (*api.FieldView, error) {
	var resp ResetResponse
	if err := c.do(ctx, "POST", "/api/minefield/reset", nil, &resp); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return &resp.Field, nil
}

func cellBody(row, col int) map[string]int {
	return map[string]int{"row": row, "col": col}
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s - %s", resp.Status, bytes.TrimSpace(data))
	}
	return json.Unmarshal(data, result)
}

// Attempt summarises one run from a fresh field.
type Attempt struct {
	Moves   int
	Guesses int
	Cleared bool
	// Detonated is false when the run stopped on the move limit.
	Detonated bool
}

// play drives one attempt on the current field.
func play(ctx context.Context, client *Client, strategy *Strategy, maxMoves int, delay time.Duration, logger *zap.SugaredLogger) (Attempt, error) {
	var attempt Attempt

	view, err := client.State(ctx)
	if err != nil {
		return attempt, err
	}

	for attempt.Moves < maxMoves {
		if view.Stats.Cleared {
			attempt.Cleared = true
			return attempt, nil
		}
		if view.Stats.Detonated {
			attempt.Detonated = true
			return attempt, nil
		}

		action, ok := strategy.Next(view.Cells)
		if !ok {
			return attempt, fmt.Errorf("no moves left on a field that is neither cleared nor detonated")
		}
		if action.Guess {
			attempt.Guesses++
			logger.Debugw("guessing", "row", action.Row, "col", action.Col)
		}

		switch action.Kind {
		case ActionFlag:
			view, err = client.Flag(ctx, action.Row, action.Col)
		default:
			var result *api.RevealResult
			result, err = client.Reveal(ctx, action.Row, action.Col)
			if result != nil {
				view = &result.Field
			}
		}
		if err != nil {
			return attempt, err
		}
		attempt.Moves++

		if delay > 0 {
			select {
			case <-ctx.Done():
				return attempt, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return attempt, nil
}

func main() {
	serverURL := flag.String("url", "http://localhost:3001", "Party host server URL")
	maxMoves := flag.Int("max-moves", 3000, "Maximum moves per attempt")
	maxAttempts := flag.Int("max-attempts", 100, "Maximum attempts before giving up")
	verbose := flag.Bool("v", false, "Verbose output")
	delayMs := flag.Int("delay", 0, "Delay between moves in milliseconds (0 = no delay)")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Seed for guesses")
	flag.Parse()

	cfg := zap.NewDevelopmentConfig()
	if !*verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	base, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer base.Sync()
	logger := base.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Infow("connecting to party host", "url", *serverURL)
	client := NewClient(*serverURL)
	strategy := NewStrategy(rand.New(rand.NewPCG(*seed, *seed>>1)))

	for attemptNum := 1; attemptNum <= *maxAttempts; attemptNum++ {
		view, err := client.Reset(ctx)
		if err != nil {
			logger.Fatalw("failed to reset field", "error", err)
		}
		logger.Infow("attempt started",
			"attempt", attemptNum,
			"preset", view.Preset,
			"rows", view.Stats.Rows,
			"cols", view.Stats.Cols,
			"mines", view.Stats.Mines,
		)

		attempt, err := play(ctx, client, strategy, *maxMoves, time.Duration(*delayMs)*time.Millisecond, logger)
		if err != nil {
			logger.Fatalw("attempt failed", "attempt", attemptNum, "error", err)
		}
		logger.Infow("attempt finished",
			"attempt", attemptNum,
			"moves", attempt.Moves,
			"guesses", attempt.Guesses,
			"cleared", attempt.Cleared,
			"detonated", attempt.Detonated,
		)

		if attempt.Cleared {
			logger.Infow("field cleared", "attempt", attemptNum, "moves", attempt.Moves)
			return
		}
	}

	logger.Errorw("failed to clear the field", "attempts", *maxAttempts)
	os.Exit(1)
}
