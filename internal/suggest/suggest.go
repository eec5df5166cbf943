// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

// Package suggest is a static playbook lookup: a pure function from an
// incident's event_type to a fixed list of recommended analyst actions.
package suggest

import "strings"

var authPlaybook = []string{
	"force_password_reset",
	"revoke_active_sessions",
	"enable_mfa_enforcement",
	"notify_account_owner",
}

var portScanPlaybook = []string{
	"block_source_ip",
	"notify_network_team",
	"review_firewall_rules",
}

var defaultPlaybook = []string{
	"review_event_manually",
	"escalate_to_on_call",
}

// Actions returns the playbook for an event_type: substring "auth" or
// "login" selects the auth playbook, "scan" or "nmap" selects the
// port-scan playbook, anything else gets the default playbook.
func Actions(eventType string) []string {
	t := strings.ToLower(eventType)

	switch {
	case strings.Contains(t, "auth"), strings.Contains(t, "login"):
		return authPlaybook
	case strings.Contains(t, "scan"), strings.Contains(t, "nmap"):
		return portScanPlaybook
	default:
		return defaultPlaybook
	}
}
