// Package services contains application services that coordinate the domain
// with external providers: fan-out quote collection across courier networks and
// best-effort buyer/seller notifications.
//
// Unlike domain services these depend on ports and carry timeouts, logging and
// metrics; they hold no business rules of their own.
package services
