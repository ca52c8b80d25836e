// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package betree indexes a large set of boolean-expression subscriptions
// over a fixed attribute schema so that an incoming event can be matched
// against the subscriptions that could possibly match it, rather than
// against every subscription ever inserted.
//
// A Tree is built in two phases: attribute domains are registered and
// subscriptions are inserted (the build phase), then events are matched
// against it (the serve phase). Once a Tree is open for matching, reads
// are safe for concurrent use by multiple goroutines; insertion is not.
package betree
