package judge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lshigami/mockdrive/internal/retry"
	"github.com/lshigami/mockdrive/internal/scoring"
	"github.com/rs/zerolog/log"
)

// Judge0 status ids.
const (
	statusInQueue           = 1
	statusProcessing        = 2
	statusAccepted          = 3
	statusWrongAnswer       = 4
	statusTimeLimitExceeded = 5
	statusCompilationError  = 6
	statusRuntimeErrorFirst = 7
	statusRuntimeErrorLast  = 12
)

type Judge0Config struct {
	BaseURL      string
	AuthToken    string
	PollInterval time.Duration
	MaxPolls     int
	Retry        retry.Config
	HTTPClient   *http.Client
}

type judge0Client struct {
	cfg  Judge0Config
	http *http.Client
}

// NewJudge0Client returns an Executor backed by a Judge0 compatible API.
func NewJudge0Client(cfg Judge0Config) Executor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 20
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &judge0Client{cfg: cfg, http: client}
}

type judge0Submission struct {
	SourceCode     string   `json:"source_code"`
	LanguageID     int      `json:"language_id"`
	Stdin          string   `json:"stdin,omitempty"`
	ExpectedOutput string   `json:"expected_output,omitempty"`
	CPUTimeLimit   *float64 `json:"cpu_time_limit,omitempty"`
	MemoryLimit    *int     `json:"memory_limit,omitempty"`
}

type judge0Token struct {
	Token string `json:"token"`
}

type judge0Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type judge0Result struct {
	Status        judge0Status `json:"status"`
	Stdout        *string      `json:"stdout"`
	Stderr        *string      `json:"stderr"`
	CompileOutput *string      `json:"compile_output"`
	Time          *string      `json:"time"`
	Memory        *int         `json:"memory"`
}

func (c *judge0Client) Execute(ctx context.Context, req Request) (*Result, error) {
	var token string
	err := retry.Do(ctx, c.cfg.Retry, func(ctx context.Context) error {
		var err error
		token, err = c.submit(ctx, req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: submit: %v", ErrUnavailable, err)
	}

	raw, err := c.poll(ctx, token)
	if err != nil {
		return nil, err
	}
	return toResult(raw)
}

func (c *judge0Client) submit(ctx context.Context, req Request) (string, error) {
	body := judge0Submission{
		SourceCode:     encode(req.SourceCode),
		LanguageID:     req.LanguageID,
		Stdin:          encode(req.Stdin),
		ExpectedOutput: encode(req.ExpectedOutput),
	}
	if req.Limits.CPUTimeSeconds > 0 {
		body.CPUTimeLimit = &req.Limits.CPUTimeSeconds
	}
	if req.Limits.MemoryKB > 0 {
		body.MemoryLimit = &req.Limits.MemoryKB
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("marshal submission: %w", err))
	}

	url := c.cfg.BaseURL + "/submissions?base64_encoded=true&wait=false"
	var tok judge0Token
	if err := c.do(ctx, http.MethodPost, url, payload, &tok); err != nil {
		return "", err
	}
	if tok.Token == "" {
		return "", fmt.Errorf("judge returned an empty token")
	}
	return tok.Token, nil
}

// poll waits until the run leaves the queue. Transient transport errors count
// against the poll budget instead of failing the run.
func (c *judge0Client) poll(ctx context.Context, token string) (*judge0Result, error) {
	url := c.cfg.BaseURL + "/submissions/" + token + "?base64_encoded=true&fields=status,stdout,stderr,compile_output,time,memory"
	var lastErr error
	for i := 0; i < c.cfg.MaxPolls; i++ {
		var res judge0Result
		err := c.do(ctx, http.MethodGet, url, nil, &res)
		switch {
		case err != nil:
			lastErr = err
			log.Warn().Err(err).Str("token", token).Int("poll", i+1).Msg("Judge poll failed")
		case res.Status.ID > statusProcessing:
			return &res, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: token %s: %v", ErrUnavailable, token, lastErr)
	}
	return nil, fmt.Errorf("%w: token %s still pending after %d polls", ErrUnavailable, token, c.cfg.MaxPolls)
}

func (c *judge0Client) do(ctx context.Context, method, url string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return retry.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.AuthToken != "" {
		httpReq.Header.Set("X-Auth-Token", c.cfg.AuthToken)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		err := fmt.Errorf("judge responded %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		// Client errors will not get better on retry.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return retry.Permanent(fmt.Errorf("decode judge response: %w", err))
	}
	return nil
}

func toResult(raw *judge0Result) (*Result, error) {
	outcome, ok := outcomeFor(raw.Status.ID)
	if !ok {
		return nil, fmt.Errorf("%w: judge internal status %d (%s)", ErrUnavailable, raw.Status.ID, raw.Status.Description)
	}
	res := &Result{
		Outcome:       outcome,
		Stdout:        decode(raw.Stdout),
		Stderr:        decode(raw.Stderr),
		CompileOutput: decode(raw.CompileOutput),
	}
	if raw.Time != nil {
		res.Time = *raw.Time
	}
	if raw.Memory != nil {
		res.MemoryKB = *raw.Memory
	}
	return res, nil
}

func outcomeFor(statusID int) (scoring.CaseOutcome, bool) {
	switch {
	case statusID == statusAccepted:
		return scoring.CasePassed, true
	case statusID == statusWrongAnswer:
		return scoring.CaseWrongAnswer, true
	case statusID == statusTimeLimitExceeded:
		return scoring.CaseTimeout, true
	case statusID == statusCompilationError:
		return scoring.CaseCompileError, true
	case statusID >= statusRuntimeErrorFirst && statusID <= statusRuntimeErrorLast:
		return scoring.CaseRuntimeError, true
	default:
		return "", false
	}
}

func encode(s string) string {
	if s == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func decode(s *string) string {
	if s == nil || *s == "" {
		return ""
	}
	// Judge0 wraps base64 output at 60 columns.
	b, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(*s, "\n", ""))
	if err != nil {
		return *s
	}
	return string(b)
}
