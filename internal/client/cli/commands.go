package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/zia/internal/client/client"
	"github.com/dmitrijs2005/zia/internal/common"
)

// getSimpleText, getPassword and getMultiline are indirections used in
// tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

// Register prompts for email, password and an optional name and creates the
// account. On success the new account is signed in.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	nameText, err := getSimpleText(a.reader, "Enter name (optional)", a.out)
	if err != nil {
		return err
	}
	var name *string
	if nameText != "" {
		name = &nameText
	}

	if err := a.auth.Register(ctx, email, password, name); err != nil {
		return err
	}
	a.setEmail(common.NormalizeEmail(email))
	a.chat.Reset()
	fmt.Fprintln(a.out, "Registered and signed in")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Login(ctx, email, password); err != nil {
		return err
	}
	a.setEmail(common.NormalizeEmail(email))
	a.chat.Reset()
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.setEmail("")
	a.chat.Reset()
	return a.auth.Logout(ctx)
}

func (a *App) Me(ctx context.Context) error {
	u, err := a.auth.Me(ctx)
	if err != nil {
		return a.sessionError(ctx, err)
	}
	name := "-"
	if u.Name != nil {
		name = *u.Name
	}
	fmt.Fprintf(a.out, "id:    %s\nemail: %s\nname:  %s\n", u.ID, u.Email, name)
	return nil
}

// Rename sets the display name. An empty answer keeps the current name.
func (a *App) Rename(ctx context.Context) error {
	text, err := getSimpleText(a.reader, "Enter new name (empty keeps the current one)", a.out)
	if err != nil {
		return err
	}
	var name *string
	if text != "" {
		name = &text
	}
	u, err := a.auth.Rename(ctx, name)
	if err != nil {
		return a.sessionError(ctx, err)
	}
	if u.Name != nil {
		fmt.Fprintf(a.out, "Name is now %q\n", *u.Name)
	}
	return nil
}

// Delete removes the account after the user types its email to confirm.
func (a *App) Delete(ctx context.Context) error {
	a.mu.Lock()
	email := a.email
	a.mu.Unlock()

	confirm, err := getSimpleText(a.reader, fmt.Sprintf("Type %s to delete the account", email), a.out)
	if err != nil {
		return err
	}
	if common.NormalizeEmail(confirm) != email {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}
	if err := a.auth.Delete(ctx); err != nil {
		return a.sessionError(ctx, err)
	}
	a.setEmail("")
	a.chat.Reset()
	fmt.Fprintln(a.out, "Account deleted")
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.auth.Refresh(ctx); err != nil {
		return a.sessionError(ctx, err)
	}
	fmt.Fprintln(a.out, "Tokens refreshed")
	return nil
}

func (a *App) Chat(ctx context.Context, text string) error {
	answer, err := a.chat.Send(ctx, text)
	if err != nil {
		return a.sessionError(ctx, err)
	}
	fmt.Fprintln(a.out, answer)
	return nil
}

func (a *App) System(ctx context.Context) error {
	prompt, err := getMultiline(a.reader, "Enter system prompt (empty clears it)", a.out)
	if err != nil {
		return err
	}
	a.chat.SetSystem(prompt)
	if strings.TrimSpace(prompt) == "" {
		fmt.Fprintln(a.out, "System prompt cleared")
	} else {
		fmt.Fprintln(a.out, "System prompt set")
	}
	return nil
}

func (a *App) Reset(ctx context.Context) error {
	a.chat.Reset()
	fmt.Fprintln(a.out, "Conversation cleared")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	a.checkOnline(ctx)
	a.mu.Lock()
	mode := a.mode
	a.mu.Unlock()
	fmt.Fprintf(a.out, "server: %s\n", mode)
	return nil
}

// sessionError signs the user out locally when the server no longer accepts
// the session.
func (a *App) sessionError(ctx context.Context, err error) error {
	if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrNotSignedIn) {
		a.setEmail("")
		a.chat.Reset()
		_ = a.auth.Logout(ctx)
		return fmt.Errorf("session ended, please login again: %w", err)
	}
	return err
}
