// Package shipping is the shipping coordinator built on the runner: a
// place_shipping_order tool gated by the approval policy, the agent that uses
// it, and the workflow that pauses for a human decision on large orders.
package shipping
