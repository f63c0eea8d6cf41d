package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingPolicy is the operator-tunable billing behavior. It is loaded from
// billing.yml when present and hot-reloaded on change; the defaults below are
// the contract the rest of the engine relies on.
type BillingPolicy struct {
	// VATRatePercent is the flat VAT percentage applied to invoice lines.
	VATRatePercent float64 `mapstructure:"vatRatePercent"`

	// TrialDays is the trial window granted at onboarding.
	TrialDays int `mapstructure:"trialDays"`

	// PaymentTermDays is added to the issue date to compute the due date.
	PaymentTermDays int `mapstructure:"paymentTermDays"`

	// Reminder escalation thresholds, in days since the invoice issue date.
	FirstReminderDays  int `mapstructure:"firstReminderDays"`
	SecondReminderDays int `mapstructure:"secondReminderDays"`
	SuspensionDays     int `mapstructure:"suspensionDays"`

	// InvoicePrefix is the default invoice-number prefix for organizations
	// without a billing profile override.
	InvoicePrefix string `mapstructure:"invoicePrefix"`

	// PlanPriceCents maps a subscription plan to its monthly price.
	PlanPriceCents map[string]int64 `mapstructure:"planPriceCents"`
}

func DefaultBillingPolicy() BillingPolicy {
	return BillingPolicy{
		VATRatePercent:     20,
		TrialDays:          30,
		PaymentTermDays:    14,
		FirstReminderDays:  7,
		SecondReminderDays: 14,
		SuspensionDays:     21,
		InvoicePrefix:      "LAIA",
		PlanPriceCents: map[string]int64{
			"essential":  4900,
			"premium":    9900,
			"excellence": 14900,
		},
	}
}

type BillingPolicyHolder struct {
	current atomic.Value // holds BillingPolicy
}

func NewBillingPolicyHolder() (*BillingPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/laia/config") // Volume-mounted config
	v.AddConfigPath("/etc/laia")            // System config
	v.AddConfigPath(".")                    // Current directory (dev mode)

	v.SetEnvPrefix("LAIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingPolicy()
	v.SetDefault("billing.vatRatePercent", defaults.VATRatePercent)
	v.SetDefault("billing.trialDays", defaults.TrialDays)
	v.SetDefault("billing.paymentTermDays", defaults.PaymentTermDays)
	v.SetDefault("billing.firstReminderDays", defaults.FirstReminderDays)
	v.SetDefault("billing.secondReminderDays", defaults.SecondReminderDays)
	v.SetDefault("billing.suspensionDays", defaults.SuspensionDays)
	v.SetDefault("billing.invoicePrefix", defaults.InvoicePrefix)
	v.SetDefault("billing.planPriceCents", defaults.PlanPriceCents)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var policy BillingPolicy
	if err := v.UnmarshalKey("billing", &policy); err != nil {
		return nil, err
	}
	if err := validateBillingPolicy(policy); err != nil {
		return nil, err
	}

	holder := &BillingPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingPolicy
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-policy] reload failed: %v", err)
			return
		}
		if err := validateBillingPolicy(updated); err != nil {
			log.Printf("[billing-policy] invalid policy ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticBillingPolicyHolder is intended for tests.
func NewStaticBillingPolicyHolder(policy BillingPolicy) *BillingPolicyHolder {
	holder := &BillingPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func (h *BillingPolicyHolder) Get() BillingPolicy {
	return h.current.Load().(BillingPolicy)
}

func validateBillingPolicy(policy BillingPolicy) error {
	if policy.VATRatePercent < 0 || policy.VATRatePercent > 100 {
		return errors.New("billing.vatRatePercent out of range")
	}
	if policy.FirstReminderDays <= 0 ||
		policy.SecondReminderDays <= policy.FirstReminderDays ||
		policy.SuspensionDays <= policy.SecondReminderDays {
		return errors.New("billing reminder thresholds must be strictly increasing")
	}
	if strings.TrimSpace(policy.InvoicePrefix) == "" {
		return errors.New("billing.invoicePrefix cannot be empty")
	}
	return nil
}
