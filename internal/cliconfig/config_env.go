package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (ROLLCALL_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen-addr", os.Getenv("ROLLCALL_LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("schedule", os.Getenv("ROLLCALL_SCHEDULE"), &cfg.Schedule)
	s.setString("roster-source", os.Getenv("ROLLCALL_ROSTER_SOURCE"), &cfg.RosterSource)
	s.setStringsFromString("roster-member", os.Getenv("ROLLCALL_ROSTER_MEMBERS"), &cfg.RosterMembers)
	s.setString("roster-path", os.Getenv("ROLLCALL_ROSTER_PATH"), &cfg.RosterPath)
	s.setString("prompt-text", os.Getenv("ROLLCALL_PROMPT_TEXT"), &cfg.PromptText)
	s.setString("button-label", os.Getenv("ROLLCALL_BUTTON_LABEL"), &cfg.ButtonLabel)
	s.setString("form-title", os.Getenv("ROLLCALL_FORM_TITLE"), &cfg.FormTitle)

	if err := s.setDuration("response-window", os.Getenv("ROLLCALL_RESPONSE_WINDOW"), &cfg.ResponseWindow); err != nil {
		return err
	}

	if err := s.setIntFromString("max-concurrent", os.Getenv("ROLLCALL_MAX_CONCURRENT_SENDS"), &cfg.MaxConcurrentSends); err != nil {
		return err
	}
	if err := s.setFloatFromString("sends-per-second", os.Getenv("ROLLCALL_SENDS_PER_SECOND"), &cfg.SendsPerSecond); err != nil {
		return err
	}
	if err := s.setIntFromString("send-burst", os.Getenv("ROLLCALL_SEND_BURST"), &cfg.SendBurst); err != nil {
		return err
	}
	if err := s.setIntFromString("send-attempts", os.Getenv("ROLLCALL_SEND_ATTEMPTS"), &cfg.SendAttempts); err != nil {
		return err
	}

	return nil
}
