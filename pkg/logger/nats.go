// Пакет logger содержит логгер приложения (zap) и публикацию событий аудита в NATS
package logger

import (
	"go.uber.org/zap"
)

// Conn определяет минимальный интерфейс NATS-подключения (*nats.Conn)
type Conn interface {
	Publish(subject string, data []byte) error
}

// NATSClient публикует события аудита отправок и отчётов в тему subject
type NATSClient struct {
	conn    Conn
	subject string
	log     *zap.Logger
}

// NewClient создаёт NATSClient; неудачные публикации пишутся в log
func NewClient(conn Conn, subject string, log *zap.Logger) *NATSClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &NATSClient{conn: conn, subject: subject, log: log}
}

// Subject возвращает тему публикации
func (n *NATSClient) Subject() string {
	return n.subject
}

// PublishLog отправляет событие в NATS и возвращает ошибку публикации
func (n *NATSClient) PublishLog(data []byte) error {
	if err := n.conn.Publish(n.subject, data); err != nil {
		n.log.Warn("publish event failed", zap.String("subject", n.subject), zap.Error(err))
		return err
	}
	return nil
}
