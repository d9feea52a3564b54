package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendReportCompleted(toEmail, jobID, answer string) error
	SendReportFailed(toEmail, jobID, reason string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)
	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

func (s *emailService) SendReportCompleted(toEmail, jobID, answer string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("体检报告已生成 (%s)", jobID))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>城市体检分析报告</h2>
			<p>任务 <code>%s</code> 已完成，报告内容如下：</p>
			<pre style="background: #f5f5f5; padding: 15px; white-space: pre-wrap;">%s</pre>
		</div>
	`, jobID, answer)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send report %s to %s: %v\n", jobID, toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Report %s sent to %s\n", jobID, toEmail)
	return nil
}

func (s *emailService) SendReportFailed(toEmail, jobID, reason string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("体检任务失败 (%s)", jobID))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>城市体检任务失败</h2>
			<p>任务 <code>%s</code> 执行失败：</p>
			<p style="color: #c0392b;">%s</p>
			<p>请检查输入图片后重试。</p>
		</div>
	`, jobID, reason)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send failure notice %s to %s: %v\n", jobID, toEmail, err)
		return err
	}
	return nil
}
