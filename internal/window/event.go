package window

// Event is a message retrieved from a window's queue.
type Event interface{}

type CreateNotify struct{}
type ShowNotify struct{}
type Expose struct{}

// CloseRequest asks the window to close. Dispatching it destroys the window.
type CloseRequest struct{}

// DestroyNotify is delivered synchronously while the window is destroyed;
// handling it posts Quit.
type DestroyNotify struct{}

// Quit ends the message loop. It is never dispatched.
type Quit struct{}

func eventName(ev Event) string {
	switch ev.(type) {
	case CreateNotify:
		return "create"
	case ShowNotify:
		return "show"
	case Expose:
		return "expose"
	case CloseRequest:
		return "close"
	case DestroyNotify:
		return "destroy"
	case Quit:
		return "quit"
	default:
		return "unexpected"
	}
}
