/*
go-autopark drives an interactive visualization of an automated parking
maneuver.  A Session plays a front camera feed, detects parking slots, lets
the user pick one, plans a forward approach followed by a curved reverse
into the slot, and animates a virtual vehicle along that path in step with
the front, rear and a continuation camera feed.  A synchronized bird's-eye
view is rendered alongside the camera view.

The Session is transport agnostic.  Commands are staged by callers and
applied by a single worker goroutine started with Run, the rendered views
are read back as JPEG images.  See example/parking for an HTTP front end.
*/
package autopark
