package vm

import (
	"bytes"
	"sync"

	"github.com/pkg/errors"

	"github.com/gojvm-core/gojvm/pkg/classfile"
	"github.com/gojvm-core/gojvm/pkg/native"
)

// Class is a loaded, parsed class: its binary-format data plus the
// runtime members built on top of it. It satisfies Owner and
// sync.Locker (the class mirror's monitor, §4.4's static-method lock).
type Class struct {
	File      *classfile.ClassFile
	Name      string
	SuperName string
	Methods   []*Method
	Fields    []*Field

	Initialized bool

	mu      sync.Mutex
	statics map[string]Value
}

func (c *Class) InternalName() string { return c.Name }
func (c *Class) Lock()                { c.mu.Lock() }
func (c *Class) Unlock()              { c.mu.Unlock() }

// FindMethod finds a method by name and descriptor.
func (c *Class) FindMethod(name, descriptor string) *Method {
	for _, m := range c.Methods {
		if m.Name == name && m.RawDescriptor == descriptor {
			return m
		}
	}
	return nil
}

// FindField finds a field by name.
func (c *Class) FindField(name string) *Field {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// StaticGet reads a static field's value. ok is false if the class has
// no such field or it has never been written (the returned Value is then
// the zero Value, which reads as an int 0 whatever the field type).
func (c *Class) StaticGet(name string) (Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.statics[name]
	return v, ok
}

// StaticSet writes a static field's value.
func (c *Class) StaticSet(name string, v Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.statics == nil {
		c.statics = make(map[string]Value)
	}
	c.statics[name] = v
}

// BuildClass parses a raw class file into a Class whose members have
// their slots assigned and their dispatch already resolved (§4.4), via
// classfile.Parse followed by ParseField/ParseMethod/ResolveDispatch.
func BuildClass(data []byte, reg *native.Registry) (*Class, error) {
	cf, err := classfile.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "parsing class file")
	}

	name, err := cf.ClassName()
	if err != nil {
		return nil, errors.Wrap(err, "resolving this_class")
	}

	c := &Class{
		File:      cf,
		Name:      name,
		SuperName: cf.SuperClassName(),
	}

	for slot, fi := range cf.Fields {
		f, err := ParseField(c, fi)
		if err != nil {
			return nil, err
		}
		f.SetSlot(slot)
		c.Fields = append(c.Fields, f)
	}

	for slot, mi := range cf.Methods {
		m, err := ParseMethod(c, mi)
		if err != nil {
			return nil, err
		}
		m.SetSlot(slot)
		ResolveDispatch(m, reg)
		c.Methods = append(c.Methods, m)
	}

	return c, nil
}
