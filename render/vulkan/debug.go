package vulkan

import (
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

func debugMessengerOptions(log logrus.FieldLogger) ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback: func(msgType ext_debug_utils.MessageTypes, severity ext_debug_utils.MessageSeverities, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
			entry := log.WithField("type", msgType)
			if severity&ext_debug_utils.SeverityError != 0 {
				entry.Error(data.Message)
			} else {
				entry.Warn(data.Message)
			}
			return false
		},
	}
}
