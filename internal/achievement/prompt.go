// Package achievement gates the anniversary reward prompt and drives its claim flow.
package achievement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/observability"
	"dex-info-search/internal/storage"
)

// ErrNoAccount is returned when an operation needs a connected account.
var ErrNoAccount = errors.New("no account")

// ClaimError is a failed claim as shown to the user.
type ClaimError struct {
	Message     string
	DataMessage string
	Err         error
}

func (e *ClaimError) Error() string {
	if e.DataMessage == "" {
		return e.Message
	}
	return fmt.Sprintf("%s - %s", e.Message, e.DataMessage)
}

func (e *ClaimError) Unwrap() error {
	return e.Err
}

// NoticeKind classifies a Notice.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a toast raised by a claim.
type Notice struct {
	Kind        NoticeKind `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	TxHash      string     `json:"txHash,omitempty"`
}

// Outcome is the result of a claim attempt.
type Outcome struct {
	Notice     *Notice `json:"notice,omitempty"`
	NavigateTo string  `json:"navigateTo,omitempty"`
}

// State is the observable prompt state.
type State struct {
	Account  string `json:"account"`
	CanClaim bool   `json:"canClaim"`
	Show     bool   `json:"show"`
	Loading  bool   `json:"loading"`
	// Celebrate is set on the refresh that first shows the prompt for an account.
	Celebrate bool `json:"celebrate"`
}

// Options configures a Prompt.
type Options struct {
	Contract          Contract
	Marks             storage.PromptStore
	ExcludedLocations []string
	Logger            *log.Logger
}

// Prompt tracks one viewer's anniversary prompt.
type Prompt struct {
	contract Contract
	marks    storage.PromptStore
	excluded []string
	logger   *log.Logger
	now      func() time.Time

	mu        sync.Mutex
	account   string
	chainID   int64
	path      string
	canClaim  bool
	show      bool
	loading   bool
	firstTime bool
}

// NewPrompt creates a Prompt with no account.
func NewPrompt(opts Options) *Prompt {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Prompt{
		contract:  opts.Contract,
		marks:     opts.Marks,
		excluded:  opts.ExcludedLocations,
		logger:    logger,
		now:       time.Now,
		firstTime: true,
	}
}

// ClaimPath is where a successful claim navigates.
func ClaimPath(account string) string {
	return "/profile/" + account + "/achievements"
}

// SetAccount switches the connected account and chain. A changed account resets
// visibility, loading and the first-time flag. Eligibility is read only on ChainBSC.
func (p *Prompt) SetAccount(ctx context.Context, account string, chainID int64) (State, error) {
	if account != "" {
		norm, err := domain.NormalizeAddress(account)
		if err != nil {
			return p.State(), err
		}
		account = norm
	}

	p.mu.Lock()
	if account != p.account {
		p.show = false
		p.loading = false
		p.firstTime = true
		p.canClaim = false
	}
	p.account = account
	p.chainID = chainID
	p.mu.Unlock()

	if account != "" && chainID == ChainBSC && p.contract != nil {
		ok, err := p.contract.CanClaim(ctx, account)
		if err != nil {
			p.logger.Printf("canClaim %s: %v", account, err)
			return p.State(), fmt.Errorf("check claim status: %w", err)
		}
		p.mu.Lock()
		if p.account == account {
			p.canClaim = ok
		}
		p.mu.Unlock()
	}

	return p.refresh(ctx)
}

// SetPath records the current page path and re-evaluates visibility.
func (p *Prompt) SetPath(ctx context.Context, path string) (State, error) {
	p.mu.Lock()
	p.path = path
	p.mu.Unlock()
	return p.refresh(ctx)
}

// State returns the current state without re-evaluating.
func (p *Prompt) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Prompt) stateLocked() State {
	return State{
		Account:  p.account,
		CanClaim: p.canClaim,
		Show:     p.show,
		Loading:  p.loading,
	}
}

// refresh shows the prompt when the account is eligible, the path is not excluded,
// the prompt is not already showing, and the account was never marked.
func (p *Prompt) refresh(ctx context.Context) (State, error) {
	p.mu.Lock()
	account := p.account
	ready := p.canClaim && !p.show && account != "" && !p.excludedLocked()
	p.mu.Unlock()

	if !ready {
		return p.State(), nil
	}

	marked, err := p.isMarked(ctx, account)
	if err != nil {
		return p.State(), err
	}
	if marked {
		return p.State(), nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.account != account || p.show {
		return p.stateLocked(), nil
	}
	celebrate := p.firstTime
	p.firstTime = false
	p.show = true
	observability.RecordPromptShown()

	st := p.stateLocked()
	st.Celebrate = celebrate
	return st, nil
}

func (p *Prompt) excludedLocked() bool {
	for _, loc := range p.excluded {
		if loc != "" && strings.Contains(p.path, loc) {
			return true
		}
	}
	return false
}

func (p *Prompt) isMarked(ctx context.Context, account string) (bool, error) {
	if p.marks == nil {
		return false, nil
	}
	marked, err := p.marks.IsMarked(ctx, account)
	if err != nil {
		return false, fmt.Errorf("check prompt mark: %w", err)
	}
	return marked, nil
}

func (p *Prompt) markOnce(ctx context.Context, account string) error {
	if p.marks == nil || account == "" {
		return nil
	}
	marked, err := p.isMarked(ctx, account)
	if err != nil || marked {
		return err
	}
	if err := p.marks.Mark(ctx, &domain.PromptMark{Account: account, MarkedAt: p.now().UnixMilli()}); err != nil {
		return fmt.Errorf("mark prompt: %w", err)
	}
	return nil
}

// Dismiss hides the prompt and marks the account so it is not shown again.
func (p *Prompt) Dismiss(ctx context.Context) error {
	p.mu.Lock()
	p.show = false
	account := p.account
	p.mu.Unlock()

	return p.markOnce(ctx, account)
}

// Claim submits the claim for the current account. On a successful receipt the
// account is marked and the outcome navigates to its achievements page. A failed
// claim yields an error notice and a *ClaimError. The prompt is always hidden
// and loading cleared afterwards.
func (p *Prompt) Claim(ctx context.Context) (Outcome, error) {
	p.mu.Lock()
	account := p.account
	if account == "" {
		p.mu.Unlock()
		return Outcome{}, ErrNoAccount
	}
	if p.contract == nil {
		p.mu.Unlock()
		return Outcome{}, ErrNoSigner
	}
	p.loading = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.show = false
		p.loading = false
		p.mu.Unlock()
	}()

	receipt, err := p.contract.Claim(ctx, account)
	if err != nil {
		claimErr := &ClaimError{Message: err.Error(), DataMessage: errorDataMessage(err), Err: err}
		observability.RecordClaim("failed")
		p.logger.Printf("claim %s: %v", account, claimErr)
		return Outcome{Notice: &Notice{
			Kind:        NoticeError,
			Title:       "Failed to claim",
			Description: claimErr.Error(),
		}}, claimErr
	}

	if receipt == nil || !receipt.Status {
		observability.RecordClaim("reverted")
		return Outcome{}, nil
	}

	observability.RecordClaim("success")
	if err := p.markOnce(ctx, account); err != nil {
		p.logger.Printf("mark %s after claim: %v", account, err)
	}
	return Outcome{
		Notice:     &Notice{Kind: NoticeSuccess, Title: "Success!", TxHash: receipt.TxHash},
		NavigateTo: ClaimPath(account),
	}, nil
}
