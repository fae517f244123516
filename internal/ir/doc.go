// Package ir provides the canonical record types shared by the session,
// store, harness and CLI packages.
//
// This package contains record definitions, canonical JSON and
// content-addressed identity only. All other internal packages may import
// ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere; numbers are int or int64
//   - All JSON tags use snake_case
//   - Ordering uses logical seq numbers, never wall-clock timestamps
//   - Program IDs are content-addressed: same source, same ID
package ir
