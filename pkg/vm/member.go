package vm

import (
	"github.com/pkg/errors"

	"github.com/gojvm-core/gojvm/pkg/classfile"
)

// Owner is the minimal view of a class a ClassMember needs: enough to
// qualify a trap/native lookup and to give reflection mirrors a clazz to
// point back at. *Class (class.go) implements it.
type Owner interface {
	InternalName() string
}

// ClassMember holds the fields shared by Field and Method: everything
// the class-file parser can fill in without knowing whether the member
// is a field or a method.
type ClassMember struct {
	owner         Owner
	slot          int // -1 until the owning class is resolved and slots are assigned
	AccessFlags   classfile.AccessFlags
	Name          string
	RawDescriptor string
	attrs         []classfile.Attribute
}

// Owner returns the class this member was parsed from.
func (m *ClassMember) Owner() Owner { return m.owner }

// Slot returns this member's assigned index, or -1 if not yet assigned.
func (m *ClassMember) Slot() int { return m.slot }

// SetSlot assigns this member's index within its owning class's table.
// Parse code or the class resolver calls this exactly once; a second
// call is a contract violation.
func (m *ClassMember) SetSlot(slot int) {
	if m.slot != -1 {
		panic(errors.Errorf("member %s: slot already assigned (%d)", m.Name, m.slot))
	}
	m.slot = slot
}

// GetAttribute returns the first attribute named name, or nil.
func (m *ClassMember) GetAttribute(name string) classfile.Attribute {
	for _, a := range m.attrs {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// GetAttributes returns every attribute named name, preserving order.
func (m *ClassMember) GetAttributes(name string) []classfile.Attribute {
	var out []classfile.Attribute
	for _, a := range m.attrs {
		if a.Name() == name {
			out = append(out, a)
		}
	}
	return out
}

// FullSignature is the owner+name+descriptor triple used in
// UnsatisfiedLinkError messages and as the reflection mirror cache key.
// The trap table and native registry use their own key built from the
// owner and name+descriptor.
func (m *ClassMember) FullSignature() string {
	return m.owner.InternalName() + "::" + m.Name + m.RawDescriptor
}

// Field is a parsed field_info, extended with its decoded type.
type Field struct {
	ClassMember
	Type string // == RawDescriptor, decoded once at parse time to fail fast
}

// ParseField builds a Field from a classfile.FieldInfo already parsed by
// the binary-format layer. owner is attached but slot is left unassigned
// (-1) until the owning class is resolved.
func ParseField(owner Owner, fi *classfile.FieldInfo) (*Field, error) {
	typ, err := classfile.DecodeFieldDescriptor(fi.Descriptor)
	if err != nil {
		return nil, errors.Wrapf(err, "field %s", fi.Name)
	}
	return &Field{
		ClassMember: ClassMember{
			owner:         owner,
			slot:          -1,
			AccessFlags:   fi.AccessFlags,
			Name:          fi.Name,
			RawDescriptor: fi.Descriptor,
			attrs:         fi.Attributes,
		},
		Type: typ,
	}, nil
}

// Method is a parsed method_info, extended with the derived fields §3
// requires (paramTypes, returnType, paramBytes, numArgs) and the resolved
// callable body (§4.4, in dispatch.go).
type Method struct {
	ClassMember
	ParamTypes []string
	ReturnType string
	ParamBytes int
	NumArgs    int
	code       codeVariant
}

// ParseMethod builds a Method from a classfile.MethodInfo, decoding its
// descriptor and computing the derived word-sizing fields, but does not
// yet resolve code — that's ResolveDispatch's job (dispatch.go), since it
// needs the trap table and native registry which member.go doesn't know
// about.
func ParseMethod(owner Owner, mi *classfile.MethodInfo) (*Method, error) {
	params, ret, err := classfile.DecodeMethodDescriptor(mi.Descriptor)
	if err != nil {
		return nil, errors.Wrapf(err, "method %s", mi.Name)
	}

	isStatic := mi.AccessFlags.IsStatic()
	paramBytes := 0
	if !isStatic {
		paramBytes++
	}
	for _, p := range params {
		if classfile.IsWideType(p) {
			paramBytes += 2
		} else {
			paramBytes++
		}
	}
	numArgs := len(params)
	if !isStatic {
		numArgs++
	}

	return &Method{
		ClassMember: ClassMember{
			owner:         owner,
			slot:          -1,
			AccessFlags:   mi.AccessFlags,
			Name:          mi.Name,
			RawDescriptor: mi.Descriptor,
			attrs:         mi.Attributes,
		},
		ParamTypes: params,
		ReturnType: ret,
		ParamBytes: paramBytes,
		NumArgs:    numArgs,
		code:       unresolvedCode{},
	}, nil
}

// IsSignaturePolymorphic implements the §4.4 rule: owner is
// java/lang/invoke/MethodHandle, the method is native and varargs, and
// its descriptor is exactly ([Ljava/lang/Object;)Ljava/lang/Object;.
func (m *Method) IsSignaturePolymorphic() bool {
	return m.owner.InternalName() == "java/lang/invoke/MethodHandle" &&
		m.AccessFlags.IsNative() &&
		m.AccessFlags.IsVarargs() &&
		m.RawDescriptor == "([Ljava/lang/Object;)Ljava/lang/Object;"
}

// NumberOfParameters mirrors java.lang.reflect.Executable.getParameterCount.
func (m *Method) NumberOfParameters() int { return len(m.ParamTypes) }

// ParamWordSize is paramBytes under the collaborator-facing name §6 uses.
func (m *Method) ParamWordSize() int { return m.ParamBytes }
