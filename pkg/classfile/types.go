// Package classfile parses the binary .class file format: the constant
// pool, field_info/method_info records, attributes, and JVM type
// descriptors. It has no notion of a running JVM — classes, threads, and
// native dispatch are modeled in package vm, which builds on top of the
// records parsed here.
package classfile

// Access flags that appear on classes, fields, and methods. Every
// standard bit is named here, though the runtime core inspects only some
// of them; AccessFlags keeps the raw value, so any other bit round-trips
// unnamed.
const (
	AccPublic     = 0x0001
	AccPrivate    = 0x0002
	AccProtected  = 0x0004
	AccStatic     = 0x0008
	AccFinal      = 0x0010
	AccSuper      = 0x0020
	AccVolatile   = 0x0040
	AccTransient  = 0x0080
	AccNative     = 0x0100
	AccInterface  = 0x0200
	AccAbstract   = 0x0400
	AccStrict     = 0x0800
	AccSynthetic  = 0x1000
	AccAnnotation = 0x2000
	AccEnum       = 0x4000
	// AccVarargs shares its bit with AccTransient; the meaning is
	// disambiguated by context (field vs. method) per the JVM spec.
	AccVarargs = 0x0080
	// AccSynchronized shares its bit with AccSuper; the meaning is
	// disambiguated by context (class vs. method), same pattern as
	// AccVarargs above.
	AccSynchronized = 0x0020
)

// AccessFlags is the 16-bit access_flags bitfield shared by classes,
// fields, and methods. It round-trips via Raw for reflection's
// getModifiers().
type AccessFlags uint16

func (a AccessFlags) has(bit uint16) bool  { return a&AccessFlags(bit) != 0 }
func (a AccessFlags) IsPublic() bool       { return a.has(AccPublic) }
func (a AccessFlags) IsStatic() bool       { return a.has(AccStatic) }
func (a AccessFlags) IsFinal() bool        { return a.has(AccFinal) }
func (a AccessFlags) IsNative() bool       { return a.has(AccNative) }
func (a AccessFlags) IsAbstract() bool     { return a.has(AccAbstract) }
func (a AccessFlags) IsVarargs() bool      { return a.has(AccVarargs) }
func (a AccessFlags) IsInterface() bool    { return a.has(AccInterface) }
func (a AccessFlags) IsSynchronized() bool { return a.has(AccSynchronized) }

// SetNative forces the NATIVE bit on, used by the dispatch resolver when a
// trap overrides a method that wasn't declared native in the class file.
func (a AccessFlags) SetNative() AccessFlags { return a | AccessFlags(AccNative) }

// Raw returns the raw 16-bit value, as consumed by
// java.lang.reflect.{Field,Method}'s modifiers accessor.
func (a AccessFlags) Raw() uint16 { return uint16(a) }

// ClassFile represents a parsed .class file.
type ClassFile struct {
	MinorVersion     uint16
	MajorVersion     uint16
	ConstantPool     []ConstantPoolEntry
	AccessFlags      AccessFlags
	ThisClass        uint16
	SuperClass       uint16
	Interfaces       []uint16
	Fields           []*FieldInfo
	Methods          []*MethodInfo
	BootstrapMethods []BootstrapMethod
}

// ClassName returns the fully qualified name of this class.
func (cf *ClassFile) ClassName() (string, error) {
	return GetClassName(cf.ConstantPool, cf.ThisClass)
}

// SuperClassName returns the fully qualified name of the super class.
// Returns "" if this is java/lang/Object (SuperClass == 0).
func (cf *ClassFile) SuperClassName() string {
	if cf.SuperClass == 0 {
		return ""
	}
	name, err := GetClassName(cf.ConstantPool, cf.SuperClass)
	if err != nil {
		return ""
	}
	return name
}

// FindMethod finds a method by name and descriptor.
func (cf *ClassFile) FindMethod(name, descriptor string) *MethodInfo {
	for _, m := range cf.Methods {
		if m.Name == name && m.Descriptor == descriptor {
			return m
		}
	}
	return nil
}

// FindMethodByName finds a method by name only (first match).
func (cf *ClassFile) FindMethodByName(name string) *MethodInfo {
	for _, m := range cf.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// FindField finds a field by name.
func (cf *ClassFile) FindField(name string) *FieldInfo {
	for _, f := range cf.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// MethodInfo represents a parsed method_info structure.
type MethodInfo struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  string
	Attributes  []Attribute
	Code        *CodeAttribute // nil unless a Code attribute was present
}

// FieldInfo represents a parsed field_info structure.
type FieldInfo struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  string
	Attributes  []Attribute
}

func attributeByName(attrs []Attribute, name string) Attribute {
	for _, a := range attrs {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

func attributesByName(attrs []Attribute, name string) []Attribute {
	var out []Attribute
	for _, a := range attrs {
		if a.Name() == name {
			out = append(out, a)
		}
	}
	return out
}

// GetAttribute returns the first attribute with the given name, or nil.
func (m *MethodInfo) GetAttribute(name string) Attribute { return attributeByName(m.Attributes, name) }

// GetAttributes returns every attribute with the given name, preserving
// input order.
func (m *MethodInfo) GetAttributes(name string) []Attribute {
	return attributesByName(m.Attributes, name)
}

func (f *FieldInfo) GetAttribute(name string) Attribute { return attributeByName(f.Attributes, name) }
func (f *FieldInfo) GetAttributes(name string) []Attribute {
	return attributesByName(f.Attributes, name)
}

// BootstrapMethod is one entry of a class's BootstrapMethods attribute,
// used to resolve invokedynamic call sites. Parsing it is the extent of
// this core's invokedynamic support; the interpreter treats it as opaque.
type BootstrapMethod struct {
	MethodRef          uint16
	BootstrapArguments []uint16
}

// ConstantPoolEntry is an interface implemented by all constant pool types.
type ConstantPoolEntry interface {
	Tag() uint8
}

type ConstantUtf8 struct {
	Value string
}

func (c *ConstantUtf8) Tag() uint8 { return TagUtf8 }

type ConstantInteger struct {
	Value int32
}

func (c *ConstantInteger) Tag() uint8 { return TagInteger }

type ConstantFloat struct {
	Value float32
}

func (c *ConstantFloat) Tag() uint8 { return TagFloat }

type ConstantLong struct {
	Value int64
}

func (c *ConstantLong) Tag() uint8 { return TagLong }

type ConstantDouble struct {
	Value float64
}

func (c *ConstantDouble) Tag() uint8 { return TagDouble }

type ConstantClass struct {
	NameIndex uint16
}

func (c *ConstantClass) Tag() uint8 { return TagClass }

type ConstantString struct {
	StringIndex uint16
}

func (c *ConstantString) Tag() uint8 { return TagString }

type ConstantFieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantFieldref) Tag() uint8 { return TagFieldref }

type ConstantMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantMethodref) Tag() uint8 { return TagMethodref }

type ConstantInterfaceMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantInterfaceMethodref) Tag() uint8 { return TagInterfaceMethodref }

type ConstantNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndType) Tag() uint8 { return TagNameAndType }
