package knownnames

import "testing"

func TestDefaultClassifiesAllocAndFreeSinks(t *testing.T) {
	t.Parallel()
	c := Default()

	if got := c.Classify("__rust_alloc"); got.Kind != AllocSource {
		t.Fatalf("expected AllocSource, got %v", got.Kind)
	}
	if got := c.Classify("free"); got.Kind != FreeSink {
		t.Fatalf("expected FreeSink, got %v", got.Kind)
	}
	if got := c.Classify("core::ptr::drop_in_place::llvm.dbg.value"); got.Kind != Ignore {
		t.Fatalf("expected Ignore, got %v", got.Kind)
	}
}

func TestIntrinsicTableCoversAllThirteenEntries(t *testing.T) {
	t.Parallel()
	c := Default()
	cases := map[string]Effect{
		"llvm.memcpy.p0i8.p0i8.i64":                       Memcpy,
		"alloc::slice::<impl [T]>::into_vec":              IntoVec,
		"<alloc::string::String as core::ops::Deref>::deref": Deref,
		"alloc::rc::Rc<T>::new":                           RcNew,
		"core::result::Result<T,E>::unwrap":               Unwrap,
		"std::ffi::c_str::CString::into_raw":              CStringIntoRaw,
		"std::ffi::c_str::CString::as_c_str":               CStringAsCStr,
		"core::mem::forget":                                Forget,
		"alloc::boxed::Box<T,A>::into_raw":                 BoxIntoRaw,
		"alloc::vec::Vec<T,A>::into_raw_parts":             VecIntoRawParts,
		"alloc::vec::Vec<T,A>::as_mut_ptr":                 VecAsPtr,
		"core::slice::from_raw_parts":                      VecFromRawParts,
		"alloc::vec::Vec<T,A>::push":                       VecPush,
	}
	for name, want := range cases {
		got := c.Classify(name)
		if got.Kind != Intrinsic || got.Effect != want {
			t.Fatalf("%s: expected Intrinsic/%v, got %v/%v", name, want, got.Kind, got.Effect)
		}
	}
}

func TestNormalFallthrough(t *testing.T) {
	t.Parallel()
	c := Default()
	got := c.Classify("my_crate::compute_sum")
	if got.Kind != Normal {
		t.Fatalf("expected Normal, got %v", got.Kind)
	}
}

func TestOverridesExtendDefaults(t *testing.T) {
	t.Parallel()
	c := Default()
	c.AddAllocSource("my_crate::custom_alloc")
	c.AddFreeSink("my_crate::custom_free")
	c.AddIgnoreSubstring("my_crate::generated")

	if !c.IsAllocSource("my_crate::custom_alloc") {
		t.Fatalf("custom alloc source not registered")
	}
	if !c.IsFreeSink("my_crate::custom_free") {
		t.Fatalf("custom free sink not registered")
	}
	if !c.ShouldIgnore("my_crate::generated::helper") {
		t.Fatalf("custom ignore substring not registered")
	}
}
