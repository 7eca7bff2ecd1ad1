package validator

import "time"

// Level selects the policy bundle applied after cryptographic verification.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Policy is one bundle of contextual checks. The flag-versus-hard-fail
// threshold per condition is explicit configuration, not prose.
type Policy struct {
	// CheckIP compares the claim's recorded IP to the request IP.
	CheckIP bool
	// HardFailOnIPMismatch turns IP_MISMATCH from a flag into a failure.
	HardFailOnIPMismatch bool

	// CheckDevice recomputes the fingerprint from the request headers.
	CheckDevice bool
	// HardFailOnDeviceMismatch turns DEVICE_MISMATCH into a failure.
	HardFailOnDeviceMismatch bool

	// CheckUserAgent flags missing or bot-like user agents.
	CheckUserAgent bool

	// CheckUserStatus looks the user up in the external store.
	CheckUserStatus bool

	// MaxTokenAge is the issued-at age ceiling; zero disables the check.
	MaxTokenAge time.Duration

	// FreshnessWindow, when non-zero, requires issuance within the window.
	FreshnessWindow time.Duration
}

// defaultPolicies is the level-to-bundle table. Mismatches only flag at
// low, device binding hard-fails from medium, both bindings hard-fail at
// high and critical, and critical adds the one-hour freshness requirement.
func defaultPolicies() map[Level]Policy {
	return map[Level]Policy{
		LevelLow: {
			CheckIP:     true,
			CheckDevice: true,
			MaxTokenAge: 24 * time.Hour,
		},
		LevelMedium: {
			CheckIP:                  true,
			CheckDevice:              true,
			HardFailOnDeviceMismatch: true,
			CheckUserAgent:           true,
			MaxTokenAge:              12 * time.Hour,
		},
		LevelHigh: {
			CheckIP:                  true,
			HardFailOnIPMismatch:     true,
			CheckDevice:              true,
			HardFailOnDeviceMismatch: true,
			CheckUserAgent:           true,
			CheckUserStatus:          true,
			MaxTokenAge:              4 * time.Hour,
		},
		LevelCritical: {
			CheckIP:                  true,
			HardFailOnIPMismatch:     true,
			CheckDevice:              true,
			HardFailOnDeviceMismatch: true,
			CheckUserAgent:           true,
			CheckUserStatus:          true,
			MaxTokenAge:              time.Hour,
			FreshnessWindow:          time.Hour,
		},
	}
}
