// Package device классифицирует клиента по заголовку User-Agent.
package device

import (
	"strings"

	"github.com/Kosench/linkpulse/internal/model"
)

var patterns = []struct {
	needle string
	device model.Device
}{
	{"mobile", model.DeviceMobile},
	{"tablet", model.DeviceTablet},
}

// Classify возвращает mobile, tablet или desktop.
// Порядок важен: UA, содержащий и "mobile", и "tablet", считается mobile.
// Пустой или нераспознанный UA - desktop.
func Classify(userAgent string) model.Device {
	ua := strings.ToLower(userAgent)
	for _, p := range patterns {
		if strings.Contains(ua, p.needle) {
			return p.device
		}
	}
	return model.DeviceDesktop
}
