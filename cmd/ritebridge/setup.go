package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/armorclaw/bridge/pkg/vault"
	"github.com/armorclaw/bridge/pkg/vaultcrypto"
)

var (
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	feedbackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// runSetupWizard walks a first-run user through choosing a master password
// on the terminal, for operators who prefer `ritebridge -setup` over driving
// setup_master_password through the desktop UI.
func runSetupWizard(v *vault.Vault) error {
	if v.State() != vault.StateUnset {
		return fmt.Errorf("setup: vault is already initialized")
	}

	fmt.Println(bannerStyle.Render("Rite Bridge — first-run setup"))

	var password, confirm string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Choose a master password").
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					result := vaultcrypto.ScorePassword(s)
					if !result.IsValid {
						return fmt.Errorf("%s", strings.Join(result.Feedback, "; "))
					}
					return nil
				}).
				Value(&password),
			huh.NewInput().
				Title("Confirm master password").
				EchoMode(huh.EchoModePassword).
				Value(&confirm),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	if password != confirm {
		return fmt.Errorf("setup: passwords did not match")
	}

	if err := v.SetupMasterPassword(context.Background(), password); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	result := vaultcrypto.ScorePassword(password)
	fmt.Println(feedbackStyle.Render(fmt.Sprintf("Master password set (strength score %d/7).", result.Score)))
	return nil
}
