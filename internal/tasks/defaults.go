package tasks

// Defaults is the task set of the knowledge-work study wave: five
// free-chat workplace scenarios followed by a distractor quiz.
func Defaults() []Task {
	return []Task{
		{
			Kind:        KindChat,
			Description: "You are an employee at a company who is organizing this year's summer party for your department. Your task is to ask the chatbot to help you write an invitation mail to the whole department that includes everyone's partner or spouse. You may ask the chatbot to adjust the response according to your preference. Once you are satisfied, please proceed to the next task.",
		},
		{
			Kind:        KindChat,
			Description: "You are a project manager at a company. You and your team are behind on the timeline for an important project. Therefore, you see no other option than to instruct the whole team to do overtime this week in order to meet the deadline. Your task is now to ask the chatbot for assistance in writing an appropriate and motivational mail to the team to communicate the necessity for doing overtime this week. You may ask the chatbot to adjust the response according to your preference. Once you are satisfied, please proceed to the next task.",
		},
		{
			Kind:        KindChat,
			Description: "You are a manager at company and your team mostly works remote from home. Lately, you got the feeling that the team members are not really committed to their work and take things overly relaxed. Your task is to request help from the chatbot to write an email communication to the team, asking them to come to the office more frequently. You may ask the chatbot to adjust the response according to your preference. Once you are satisfied, please proceed to the next task.",
		},
		{
			Kind:        KindChat,
			Description: "You are working at an industrial company and are responsible for the procurement of production goods. An important machine has just failed and you need an urgent replacement so that production does not have to be stopped. The problem is that the normal procurement process for purchases is very tedious and slow. Your task is to ask the chatbot to write you a guide on how to speed up the procurement process. You may ask the chatbot to adjust the response according to your preference. Once you are satisfied, please proceed to the next task.",
		},
		{
			Kind:        KindChat,
			Description: "You are organizing the next team event for the company department you are working for. Since the office has only a very limited number of dish washers, you decide that using normal cutlery and plates is not feasible. Therefore, you want to propose to the team to use disposable cutlery and plates for convenience. Your task is to ask the chatbot to write you a draft for a convincing email communication promoting the use of disposable cutlery and plates. You may ask the chatbot to adjust the response according to your preference. Once you are satisfied, please proceed to the next task.",
		},
		{
			Kind:        KindQuiz,
			Description: "Before moving on to the survey, please take this short quiz.",
			Questions: []Question{
				{
					Text:    "What is the capital of Canada?",
					Options: []string{"Toronto", "Vancouver", "Ottawa", "Montreal"},
					Answer:  "Ottawa",
				},
				{
					Text:    "Which planet is closest to the sun?",
					Options: []string{"Venus", "Earth", "Mercury", "Mars"},
					Answer:  "Mercury",
				},
				{
					Text:    "What is the largest ocean on Earth?",
					Options: []string{"Atlantic", "Pacific", "Indian", "Arctic"},
					Answer:  "Pacific",
				},
			},
		},
	}
}
