package email

import (
	"html/template"
	"strings"
)

type signupCodeData struct {
	Name string
	Code string
}

var signupCodeTemplate = template.Must(template.New("signup_code").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <style>
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f4f4; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 30px; text-align: center; }
    .header h1 { color: #ffffff; margin: 0; font-size: 24px; }
    .content { padding: 40px 30px; }
    .greeting { font-size: 18px; color: #333333; margin-bottom: 20px; }
    .otp-container { background-color: #f8f9ff; border: 2px dashed #667eea; border-radius: 10px; padding: 25px; text-align: center; margin: 30px 0; }
    .otp-code { font-size: 36px; font-weight: bold; color: #667eea; letter-spacing: 40px; margin: 0; padding-left: 40px; }
    .timer { background-color: #fff3cd; border-radius: 5px; padding: 10px; text-align: center; color: #856404; font-weight: bold; margin: 20px 0; }
    .warning { background-color: #f8d7da; border-left: 4px solid #dc3545; padding: 15px; margin: 20px 0; color: #721c24; }
    .footer { background-color: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>&#128272; Verification Required</h1>
    </div>
    <div class="content">
      <p class="greeting">Hello {{.Name}}! &#128075;</p>
      <p>Use the verification code below to complete your signup:</p>
      <div class="otp-container">
        <p class="otp-code">{{.Code}}</p>
      </div>
      <div class="timer">&#9200; Valid for 10 minutes</div>
      <div class="warning">
        <strong>&#9888;&#65039; Security Notice:</strong> Never share this code with anyone.
        We will never ask for your verification code.
      </div>
      <p>If you did not request this code, you can safely ignore this email.</p>
    </div>
    <div class="footer">
      <p>This is an automated message, please do not reply.</p>
    </div>
  </div>
</body>
</html>`))

func renderSignupCodeHTML(data signupCodeData) (string, error) {
	var sb strings.Builder
	if err := signupCodeTemplate.Execute(&sb, data); err != nil {
		return "", err
	}

	return sb.String(), nil
}
