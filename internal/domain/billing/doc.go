// Package billing provides domain models for plans, subscriptions, and
// monthly reply metering.
//
// This package implements the billing bounded context, which is responsible for:
//   - Defining the plan catalog (FREE, PRO, PREMIUM) and its entitlements
//   - Metering reply generation per organization and calendar month (UTC)
//   - Enforcing monthly reply quotas and per-plan feature limits
//   - Tracking subscription lifecycle state synced from the payment provider
//
// Key Aggregates:
//   - Subscription: The payment provider subscription backing a paid plan
//   - ReplyUsage: The per-organization, per-period reply counter
//
// Value Objects:
//   - PlanCode: Enumeration of subscription plans
//   - UsageSnapshot / UsageConsumption: Read and write views of the counter
//
// The billing domain integrates with:
//   - Identity domain: For organization and plan code information
//   - Content domain: As the consumer of reply generation slots
package billing
