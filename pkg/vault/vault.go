// Package vault implements Rite's master-password state machine: Unset,
// Locked, and Unlocked, the in-memory master key that gates connection
// credential decryption, and unlock rate limiting.
package vault

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/armorclaw/bridge/pkg/audit"
	"github.com/armorclaw/bridge/pkg/eventsink"
	"github.com/armorclaw/bridge/pkg/logger"
	"github.com/armorclaw/bridge/pkg/metrics"
	"github.com/armorclaw/bridge/pkg/vaultcrypto"
	"github.com/armorclaw/bridge/pkg/vaultstore"
)

// State is the vault's current lifecycle state.
type State int

const (
	StateUnset State = iota
	StateLocked
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateUnset:
		return "unset"
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// Rate-limit parameters, matched literally to the original auth manager:
// a rolling one-minute failure window, five attempts, and a 30-second
// lockout measured from the most recent attempt rather than the window
// start. The asymmetry between the 1-minute window and 30-second lockout
// is intentional and preserved as-is.
const (
	maxAttempts     = 5
	windowMinutes   = 1
	lockoutDuration = 30 * time.Second
)

// UnlockOutcome is the result of a call to Unlock.
type UnlockOutcome int

const (
	UnlockSuccess UnlockOutcome = iota
	UnlockInvalidPassword
	UnlockRateLimited
)

func (o UnlockOutcome) String() string {
	switch o {
	case UnlockSuccess:
		return "success"
	case UnlockInvalidPassword:
		return "invalid_password"
	case UnlockRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// UnlockResult carries the outcome and, when rate limited, the remaining
// cooldown in seconds.
type UnlockResult struct {
	Outcome     UnlockOutcome
	WaitSeconds int
}

// Vault owns the in-memory master key and mediates every state transition.
type Vault struct {
	mu        sync.RWMutex
	state     State
	masterKey []byte

	store       *vaultstore.Store
	securityLog *logger.SecurityLogger
	auditLog    *audit.CriticalOperationLogger
	sink        *eventsink.EventSink
}

// New constructs a Vault bound to store. Its initial state is Locked unless
// the store has never had a master password set, in which case it is Unset.
// sink may be nil; when set, every lock/unlock transition is also published
// as a VaultStateEvent.
func New(store *vaultstore.Store, securityLog *logger.SecurityLogger, auditLog *audit.CriticalOperationLogger, sink *eventsink.EventSink) (*Vault, error) {
	v := &Vault{store: store, securityLog: securityLog, auditLog: auditLog, sink: sink}

	firstRun, err := store.IsFirstRun()
	if err != nil {
		return nil, fmt.Errorf("vault: determine initial state: %w", err)
	}
	if firstRun {
		v.state = StateUnset
	} else {
		v.state = StateLocked
	}
	return v, nil
}

// State reports the current lifecycle state.
func (v *Vault) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// SetupMasterPassword transitions Unset -> Unlocked, rejecting the password
// if the strength scorer rejects it.
func (v *Vault) SetupMasterPassword(ctx context.Context, password string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != StateUnset {
		return fmt.Errorf("vault: setup_master_password requires Unset state, got %s", v.state)
	}

	result := vaultcrypto.ScorePassword(password)
	if !result.IsValid {
		return fmt.Errorf("vault: password too weak: %v", result.Feedback)
	}

	salt, err := vaultcrypto.GenerateSalt()
	if err != nil {
		return fmt.Errorf("vault: setup: %w", err)
	}
	hash, err := vaultcrypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("vault: setup: %w", err)
	}
	if err := v.store.StoreMasterPassword(hash, salt); err != nil {
		return fmt.Errorf("vault: setup: %w", err)
	}

	v.masterKey = vaultcrypto.DeriveMasterKey(password, salt)
	v.state = StateUnlocked

	if v.securityLog != nil {
		v.securityLog.LogVaultSetup(ctx, result.Score)
	}
	if v.auditLog != nil {
		v.auditLog.LogVaultSetup(ctx, result.Score)
	}
	v.publishState(eventsink.EventTypeVaultUnlocked)
	return nil
}

// Unlock transitions Locked -> Unlocked given the correct password, subject
// to rate limiting.
func (v *Vault) Unlock(ctx context.Context, password string) (UnlockResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != StateLocked {
		return UnlockResult{}, fmt.Errorf("vault: unlock requires Locked state, got %s", v.state)
	}

	if v.securityLog != nil {
		v.securityLog.LogVaultUnlockAttempt(ctx)
	}

	if wait, limited, err := v.checkRateLimit(); err != nil {
		return UnlockResult{}, err
	} else if limited {
		if v.securityLog != nil {
			v.securityLog.LogVaultRateLimited(ctx, uint64(wait))
		}
		if v.auditLog != nil {
			v.auditLog.LogVaultUnlock(ctx, false, true)
		}
		metrics.UnlockAttempts.WithLabelValues("locked_out").Inc()
		metrics.VaultLockouts.Inc()
		return UnlockResult{Outcome: UnlockRateLimited, WaitSeconds: wait}, nil
	}

	hash, salt, err := v.store.GetMasterPassword()
	if err != nil {
		return UnlockResult{}, fmt.Errorf("vault: unlock: load master password: %w", err)
	}

	ok, err := vaultcrypto.VerifyPassword(password, hash)
	if err != nil {
		return UnlockResult{}, fmt.Errorf("vault: unlock: verify password: %w", err)
	}

	if err := v.store.RecordUnlockAttempt(ok); err != nil {
		return UnlockResult{}, fmt.Errorf("vault: unlock: record attempt: %w", err)
	}

	if !ok {
		if v.securityLog != nil {
			v.securityLog.LogVaultUnlockFailure(ctx)
		}
		if v.auditLog != nil {
			v.auditLog.LogVaultUnlock(ctx, false, false)
		}
		metrics.UnlockAttempts.WithLabelValues("wrong_password").Inc()
		return UnlockResult{Outcome: UnlockInvalidPassword}, nil
	}

	v.masterKey = vaultcrypto.DeriveMasterKey(password, salt)
	v.state = StateUnlocked

	if v.securityLog != nil {
		v.securityLog.LogVaultUnlockSuccess(ctx)
	}
	if v.auditLog != nil {
		v.auditLog.LogVaultUnlock(ctx, true, false)
	}
	metrics.UnlockAttempts.WithLabelValues("success").Inc()
	v.publishState(eventsink.EventTypeVaultUnlocked)
	return UnlockResult{Outcome: UnlockSuccess}, nil
}

// checkRateLimit reports whether the vault should refuse the next unlock
// attempt, and for how many more seconds.
func (v *Vault) checkRateLimit() (waitSeconds int, limited bool, err error) {
	attempts, err := v.store.RecentUnlockAttempts(windowMinutes)
	if err != nil {
		return 0, false, fmt.Errorf("vault: check rate limit: %w", err)
	}

	failures := 0
	var latest int64
	for _, a := range attempts {
		if !a.Success {
			failures++
		}
		if a.TimestampMs > latest {
			latest = a.TimestampMs
		}
	}
	if failures < maxAttempts {
		return 0, false, nil
	}

	elapsed := time.Since(time.UnixMilli(latest))
	if elapsed >= lockoutDuration {
		return 0, false, nil
	}
	remaining := lockoutDuration - elapsed
	return int(remaining.Seconds()) + 1, true, nil
}

// Lock zeroizes the in-memory master key and transitions to Locked from any
// state.
func (v *Vault) Lock(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zeroizeLocked()
	v.state = StateLocked

	if v.securityLog != nil {
		v.securityLog.LogVaultLocked(ctx)
	}
	if v.auditLog != nil {
		v.auditLog.LogVaultLock(ctx)
	}
	v.publishState(eventsink.EventTypeVaultLocked)
}

// publishState emits a VaultStateEvent if a sink is configured. Caller must
// hold v.mu (read or write).
func (v *Vault) publishState(eventType string) {
	if v.sink == nil {
		return
	}
	v.sink.Publish(eventsink.NewVaultStateEvent(eventType))
}

// zeroizeLocked overwrites the master key bytes. Caller must hold v.mu.
func (v *Vault) zeroizeLocked() {
	for i := range v.masterKey {
		v.masterKey[i] = 0
	}
	v.masterKey = nil
}

// ErrLocked is returned by GetMasterKey when the vault is not Unlocked.
var ErrLocked = fmt.Errorf("vault: locked")

// GetMasterKey returns the current master key, or ErrLocked.
func (v *Vault) GetMasterKey() ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.state != StateUnlocked {
		return nil, ErrLocked
	}
	return v.masterKey, nil
}

// ResetDatabase locks the vault then atomically deletes the stored
// connections, master-password record and unlock-attempt history, returning
// to Unset. Known host keys and settings are kept.
func (v *Vault) ResetDatabase(ctx context.Context) error {
	v.Lock(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.store.Reset(ctx); err != nil {
		return fmt.Errorf("vault: reset_database: %w", err)
	}
	v.state = StateUnset

	if v.auditLog != nil {
		v.auditLog.LogVaultReset(ctx)
	}
	return nil
}
