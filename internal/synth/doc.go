// Package synth generates the synthetic churn datasets: customers,
// transactions, support interactions, and usage records, all keyed by a
// shared customer_id and carrying an embedded ground-truth churn label.
//
// Generation is a pure function of the Config (including its seed): no
// global state, no I/O, no clock reads. Two calls with identical config
// produce identical output. Randomness is drawn from per-concern,
// per-customer sub-streams derived from the master seed, so per-customer
// output does not depend on generation order or on unrelated config
// changes such as num_customers.
package synth
