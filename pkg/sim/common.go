package sim

import (
	fx "github.com/robotalks/linecar/pkg/framework"
)

// ObjectsChangeCaster fans World change notifications out to every
// subscribed listener, in subscription order.
type ObjectsChangeCaster struct {
	listeners []ObjectsChangeListener
}

// SubscribeObjectsChange implements ObjectsChangeSubscriber.
func (c *ObjectsChangeCaster) SubscribeObjectsChange(ln ObjectsChangeListener) {
	c.listeners = append(c.listeners, ln)
}

// ObjectsChanged forwards changed cars and tracks to the listeners.
func (c *ObjectsChangeCaster) ObjectsChanged(cc fx.ControlContext, objs ...Object) {
	if len(objs) == 0 {
		return
	}
	for _, ln := range c.listeners {
		ln.ObjectsChanged(cc, objs...)
	}
}

// ObjectsRemoved forwards removed objects to the listeners.
func (c *ObjectsChangeCaster) ObjectsRemoved(cc fx.ControlContext, objs ...Object) {
	if len(objs) == 0 {
		return
	}
	for _, ln := range c.listeners {
		ln.ObjectsRemoved(cc, objs...)
	}
}
