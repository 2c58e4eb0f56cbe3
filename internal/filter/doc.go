// Package filter models the dashboard's active filters.
//
// # Filter identity
//
// Every filter carries a canonical ID of the form key:value:
//
//	resource:aws_ec2     the single selected resource type
//	env:prod             a tag filter (one per value)
//	account:123456789012 an account filter
//
// The ID is the identity used for de-duplication. Two tag filters with the
// same key but different values are distinct.
//
// # History tokens
//
// FormatTokens and ParseTokens convert a filter list to and from the compact
// form stored in the shareable query string:
//
//	resource:aws_ec2;env:prod,staging;account:111
//
// Values sharing a key are comma-joined and key groups are semicolon-joined.
// Tag keys may contain colons (aws:cloudformation:stack-name); the last colon
// separates key from values. Values containing separators are not supported.
//
// # Store
//
// Store enforces the set rules: no duplicate IDs, at most one resource filter
// (a new one replaces the old), and no incomplete placeholder in the list.
// The placeholder opened while a tag value is being chosen is tracked apart
// from the list and dropped by the next committed mutation.
//
// Settled returns the filters that reach the API. The resource filter is
// excluded because it selects which detail view is shown rather than
// narrowing the summary query. SettledKey is the change detector the
// orchestrator uses to decide whether the summary must be fetched again.
package filter
