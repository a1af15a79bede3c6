//go:build darwin

package clipboard

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
// #include <stdlib.h>
// #include <string.h>
//
// static char* pasteboardString(void) {
//     @autoreleasepool {
//         NSString *s = [[NSPasteboard generalPasteboard] stringForType:NSPasteboardTypeString];
//         if (s == nil) {
//             return NULL;
//         }
//         return strdup([s UTF8String]);
//     }
// }
import "C"

import "unsafe"

// readText reads the general pasteboard in-process.
func readText() (string, error) {
	cstr := C.pasteboardString()
	if cstr == nil {
		return "", nil
	}
	defer C.free(unsafe.Pointer(cstr))
	return C.GoString(cstr), nil
}
