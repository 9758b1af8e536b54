package config

import (
	"github.com/sirupsen/logrus"
	"tango-chat-app/config/common"
	"tango-chat-app/notification"
)

func NewNotifier(cfg *common.Config, log *logrus.Logger) notification.Notifier {
	brokers, topic := cfg.GetKafkaConfig()
	if len(brokers) == 0 {
		log.Warn("KAFKA_BROKERS not set, push notifications are disabled")
		return notification.NopNotifier{}
	}
	log.Infof("Publishing push notifications to %s on %v", topic, brokers)
	return notification.NewKafkaNotifier(brokers, topic)
}
