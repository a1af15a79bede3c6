//go:build darwin

package focus

// #cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
// #include <CoreGraphics/CoreGraphics.h>
//
// // First on-screen window at layer 0, in front-to-back order.
// static int frontmostPID(void) {
//     CFArrayRef windows = CGWindowListCopyWindowInfo(
//         kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements,
//         kCGNullWindowID);
//     if (windows == NULL) {
//         return 0;
//     }
//     int pid = 0;
//     CFIndex n = CFArrayGetCount(windows);
//     for (CFIndex i = 0; i < n; i++) {
//         CFDictionaryRef info = (CFDictionaryRef)CFArrayGetValueAtIndex(windows, i);
//         int layer = -1;
//         CFNumberRef layerRef = (CFNumberRef)CFDictionaryGetValue(info, kCGWindowLayer);
//         if (layerRef == NULL || !CFNumberGetValue(layerRef, kCFNumberIntType, &layer) || layer != 0) {
//             continue;
//         }
//         CFNumberRef pidRef = (CFNumberRef)CFDictionaryGetValue(info, kCGWindowOwnerPID);
//         if (pidRef != NULL && CFNumberGetValue(pidRef, kCFNumberIntType, &pid)) {
//             break;
//         }
//         pid = 0;
//     }
//     CFRelease(windows);
//     return pid;
// }
import "C"

func frontmost() int {
	return int(C.frontmostPID())
}
