package main

import (
	"strings"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/pkg/paypal"
)

type checkConstraint struct {
	table, name, expr string
}

func inList(column string, values ...string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return column + " IN (" + strings.Join(quoted, ", ") + ")"
}

// checkConstraints mirrors the entity enumerations.
func checkConstraints() []checkConstraint {
	return []checkConstraint{
		{"users", "chk_users_role", inList("role",
			string(entity.UserRoleUser), string(entity.UserRoleVIP), string(entity.UserRoleAdmin))},
		{"vip_subscriptions", "chk_vip_subscriptions_plan", inList("plan_type",
			string(entity.PlanMonthly), string(entity.PlanQuarterly), string(entity.PlanAnnual))},
		{"transactions", "chk_transactions_status", inList("status",
			string(entity.TransactionStatusPending), string(entity.TransactionStatusCompleted),
			string(entity.TransactionStatusFailed), string(entity.TransactionStatusRefunded))},
		{"transactions", "chk_transactions_type", inList("transaction_type",
			string(entity.TransactionTypeJeezPurchase), string(entity.TransactionTypeVipSubscription),
			string(entity.TransactionTypeRefund), string(entity.TransactionTypeAdjustment))},
		{"paypal_orders", "chk_paypal_orders_status", inList("status",
			string(entity.PayPalOrderStatusCreated), string(entity.PayPalOrderStatusApproved),
			string(entity.PayPalOrderStatusCompleted), string(entity.PayPalOrderStatusFailed))},
		{"paypal_orders", "chk_paypal_orders_intent", inList("intent", paypal.IntentCapture, paypal.IntentSubscription)},
		{"paypal_orders", "chk_paypal_orders_amount", `amount > 0`},
	}
}

// sql replaces the constraint so a changed enumeration reaches existing
// databases.
func (c checkConstraint) sql() string {
	return `DO $$ BEGIN
		ALTER TABLE ` + c.table + ` DROP CONSTRAINT IF EXISTS ` + c.name + `;
		ALTER TABLE ` + c.table + ` ADD CONSTRAINT ` + c.name + ` CHECK (` + c.expr + `);
	END $$;`
}
