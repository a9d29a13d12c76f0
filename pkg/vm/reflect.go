package vm

import (
	cmap "github.com/orcaman/concurrent-map"

	"github.com/gojvm-core/gojvm/pkg/classfile"
)

// mirrorCache memoizes reflect mirrors by the member's FullSignature so
// repeated java/lang/reflect lookups (getDeclaredFields, getMethods) don't
// re-walk attributes and re-resolve descriptors on every call.
var mirrorCache = cmap.New()

// newByteArrayMirror wraps raw annotation/default bytes as the
// JByteArray a reflection mirror field expects, or returns the zero
// Value ("absent") when there is nothing to wrap.
func newByteArrayMirror(data []byte) Value {
	if data == nil {
		return Value{}
	}
	return RefValue(&JByteArray{Bytes: data})
}

// Reflect implements §4.5's Field.reflect(thread, callback): resolve the
// field's declared type, then build a java/lang/reflect/Field mirror.
// callback is invoked exactly once, with nil if the type failed to
// resolve — the exception itself is left on thread, matching every
// other collaborator boundary in this package.
func (f *Field) Reflect(thread *Thread, callback func(*JObject)) {
	if v, ok := mirrorCache.Get(f.FullSignature()); ok {
		callback(v.(*JObject))
		return
	}

	rt := thread.RT
	sig, _ := f.GetAttribute("Signature").(*classfile.SignatureAttribute)
	ann, _ := f.GetAttribute("RuntimeVisibleAnnotations").(*classfile.AnnotationsAttribute)

	rt.ResolveClass(thread, f.Type, func(typeClass *Class) {
		mirror := NewJObject("java/lang/reflect/Field")
		mirror.Fields["clazz"] = RefValue(f.Owner())
		mirror.Fields["name"] = RefValue(rt.InternString(f.Name))
		mirror.Fields["type"] = RefValue(typeClass)
		mirror.Fields["modifiers"] = IntValue(int32(f.AccessFlags.Raw()))
		mirror.Fields["slot"] = IntValue(int32(f.Slot()))
		if sig != nil {
			mirror.Fields["signature"] = RefValue(rt.InternString(sig.Sig))
		}
		if ann != nil {
			mirror.Fields["annotations"] = newByteArrayMirror(ann.RawBytes)
		}
		mirrorCache.Set(f.FullSignature(), mirror)
		callback(mirror)
	}, func(err error) {
		reflectLog.Warningf("reflecting field %s: %v", f.FullSignature(), err)
		thread.ThrowJavaException("java/lang/TypeNotPresentException", err.Error())
		callback(nil)
	})
}

// reflectDescriptors collects every class descriptor Method.reflect
// needs resolved before it can build a mirror: the return type, every
// parameter type, every declared checked exception, and — if the method
// has code with exception handlers — Throwable plus every non-wildcard
// catch type.
func (m *Method) reflectDescriptors() []string {
	seen := make(map[string]bool)
	var descs []string
	add := func(d string) {
		if d == "" || seen[d] {
			return
		}
		seen[d] = true
		descs = append(descs, d)
	}

	add(m.ReturnType)
	for _, p := range m.ParamTypes {
		add(p)
	}
	if exc, ok := m.GetAttribute("Exceptions").(*classfile.ExceptionsAttribute); ok {
		for _, e := range exc.Exceptions {
			add("L" + e + ";")
		}
	}
	if attr, ok := m.GetAttribute("Code").(*classfile.CodeAttribute); ok && len(attr.ExceptionHandlers) > 0 {
		add("Ljava/lang/Throwable;")
		for _, h := range attr.ExceptionHandlers {
			if h.CatchType != "" {
				add("L" + h.CatchType + ";")
			}
		}
	}
	return descs
}

// Reflect implements §4.5's Method.reflect(thread, isConstructor,
// callback): batch-resolve every referenced descriptor (§4.5 point 1),
// then assemble either a java/lang/reflect/Method or a
// java/lang/reflect/Constructor mirror, per isConstructor.
func (m *Method) Reflect(thread *Thread, isConstructor bool, callback func(*JObject)) {
	if v, ok := mirrorCache.Get(m.FullSignature()); ok {
		callback(v.(*JObject))
		return
	}

	rt := thread.RT
	descs := m.reflectDescriptors()

	rt.ResolveClasses(thread, descs, func(resolved map[string]*Class) {
		mirrorClass := func(d string) interface{} {
			if c, ok := resolved[d]; ok {
				return c
			}
			return nil
		}

		className := "java/lang/reflect/Method"
		if isConstructor {
			className = "java/lang/reflect/Constructor"
		}
		mirror := NewJObject(className)
		mirror.Fields["clazz"] = RefValue(m.Owner())
		mirror.Fields["name"] = RefValue(rt.InternString(m.Name))
		mirror.Fields["modifiers"] = IntValue(int32(m.AccessFlags.Raw()))
		mirror.Fields["slot"] = IntValue(int32(m.Slot()))

		paramTypes := make([]Value, len(m.ParamTypes))
		for i, p := range m.ParamTypes {
			paramTypes[i] = RefValue(mirrorClass(p))
		}
		mirror.Fields["parameterTypes"] = RefValue(&JArray{ElementType: "Ljava/lang/Class;", Elements: paramTypes})

		if !isConstructor {
			mirror.Fields["returnType"] = RefValue(mirrorClass(m.ReturnType))
		}

		var excDescs []string
		if exc, ok := m.GetAttribute("Exceptions").(*classfile.ExceptionsAttribute); ok {
			for _, e := range exc.Exceptions {
				excDescs = append(excDescs, "L"+e+";")
			}
		}
		excTypes := make([]Value, len(excDescs))
		for i, d := range excDescs {
			excTypes[i] = RefValue(mirrorClass(d))
		}
		mirror.Fields["exceptionTypes"] = RefValue(&JArray{ElementType: "Ljava/lang/Class;", Elements: excTypes})

		if sig, ok := m.GetAttribute("Signature").(*classfile.SignatureAttribute); ok {
			mirror.Fields["signature"] = RefValue(rt.InternString(sig.Sig))
		}
		if ann, ok := m.GetAttribute("RuntimeVisibleAnnotations").(*classfile.AnnotationsAttribute); ok {
			mirror.Fields["annotations"] = newByteArrayMirror(ann.RawBytes)
		}
		if def, ok := m.GetAttribute("AnnotationDefault").(*classfile.AnnotationDefaultAttribute); ok {
			mirror.Fields["annotationDefault"] = newByteArrayMirror(def.RawBytes)
		}
		if pann, ok := m.GetAttribute("RuntimeVisibleParameterAnnotations").(*classfile.ParameterAnnotationsAttribute); ok {
			mirror.Fields["parameterAnnotations"] = newByteArrayMirror(pann.RawBytes)
		}

		mirrorCache.Set(m.FullSignature(), mirror)
		callback(mirror)
	}, func(err error) {
		reflectLog.Warningf("reflecting method %s: %v", m.FullSignature(), err)
		thread.ThrowJavaException("java/lang/TypeNotPresentException", err.Error())
		callback(nil)
	})
}
