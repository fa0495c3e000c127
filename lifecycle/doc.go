/*
Package lifecycle tracks runtime-generated objects together with paired
metadata and forgets them once the objects become unreachable.

The tracker never owns its subjects. Each entry holds a weak pointer (Go's
weak package) to the subject and the metadata it was paired with; a background
sweep, running on a fixed interval, drops every entry whose weak pointer no
longer resolves and notifies release listeners with the entry's metadata.

	tr := lifecycle.New(lifecycle.WithInterval(100 * time.Millisecond))
	defer tr.Stop()

	tr.Track(obj, descriptor)

Entry states:

	Active    -> the weak pointer resolves
	Collected -> the weak pointer fails; detected only by a sweep, then removed

Track after Stop is a no-op that returns false, so Stop is safe to call from
shutdown paths at any time.
*/
package lifecycle
